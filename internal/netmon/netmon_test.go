package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialState(t *testing.T) {
	assert.True(t, New(true).IsOnline())
	assert.True(t, New(false).IsOffline())
}

func TestSetNotifiesOnTransition(t *testing.T) {
	m := New(false)
	ch := m.Subscribe()

	m.Set(true)
	assert.True(t, m.IsOnline())

	select {
	case online := <-ch:
		assert.True(t, online)
	default:
		t.Fatal("expected transition notification")
	}
}

func TestSetSameStateDoesNotNotify(t *testing.T) {
	m := New(true)
	ch := m.Subscribe()

	m.Set(true)

	select {
	case <-ch:
		t.Fatal("unexpected notification for unchanged state")
	default:
	}
}

func TestNonBlockingSend(t *testing.T) {
	m := New(false)
	_ = m.Subscribe() // never drained

	// Repeated flips must not deadlock even with a full subscriber buffer.
	for i := 0; i < 5; i++ {
		m.Set(true)
		m.Set(false)
	}
	assert.True(t, m.IsOffline())
}
