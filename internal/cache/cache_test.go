package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dokanhisab/m/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndAll(t *testing.T) {
	s := openStore(t)

	c1 := domain.Customer{ID: "c1", UserID: "u1", Name: "Rahim", SyncStatus: domain.SyncSynced}
	c2 := domain.Customer{ID: "c2", UserID: "u1", Name: "Karim", SyncStatus: domain.SyncSynced}
	other := domain.Customer{ID: "c3", UserID: "u2", Name: "Selim", SyncStatus: domain.SyncSynced}

	require.NoError(t, s.Put(domain.CollectionCustomers, c1.ID, c1.UserID, c1.SyncStatus, c1))
	require.NoError(t, s.Put(domain.CollectionCustomers, c2.ID, c2.UserID, c2.SyncStatus, c2))
	require.NoError(t, s.Put(domain.CollectionCustomers, other.ID, other.UserID, other.SyncStatus, other))

	got, err := All[domain.Customer](s, domain.CollectionCustomers, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	names := map[string]bool{}
	for _, c := range got {
		names[c.Name] = true
	}
	assert.True(t, names["Rahim"])
	assert.True(t, names["Karim"])
}

func TestPutOverwritesByID(t *testing.T) {
	s := openStore(t)

	c := domain.Customer{ID: "c1", UserID: "u1", Name: "Before"}
	require.NoError(t, s.Put(domain.CollectionCustomers, c.ID, c.UserID, domain.SyncPending, c))

	c.Name = "After"
	require.NoError(t, s.Put(domain.CollectionCustomers, c.ID, c.UserID, domain.SyncSynced, c))

	got, err := All[domain.Customer](s, domain.CollectionCustomers, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "After", got[0].Name)
}

func TestUpdateMergesFields(t *testing.T) {
	s := openStore(t)

	p := domain.Product{ID: "p1", UserID: "u1", Name: "Rice", CurrentStock: 10, SyncStatus: domain.SyncSynced}
	require.NoError(t, s.Put(domain.CollectionProducts, p.ID, p.UserID, p.SyncStatus, p))

	require.NoError(t, s.Update(domain.CollectionProducts, "p1", map[string]any{
		"current_stock": 4.0,
		"sync_status":   string(domain.SyncPending),
	}))

	got, err := Get[domain.Product](s, domain.CollectionProducts, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Rice", got.Name)
	assert.InDelta(t, 4.0, got.CurrentStock, 1e-9)
	assert.Equal(t, domain.SyncPending, got.SyncStatus)

	pending, err := s.Pending("u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].ID)
}

func TestUpdateUnknownRecord(t *testing.T) {
	s := openStore(t)
	err := s.Update(domain.CollectionProducts, "missing", map[string]any{"current_stock": 1.0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceAdoptsServerID(t *testing.T) {
	s := openStore(t)

	local := domain.Expense{ID: "local-1", UserID: "u1", Category: "rent", Amount: 100, SyncStatus: domain.SyncPending}
	require.NoError(t, s.Put(domain.CollectionExpenses, local.ID, local.UserID, local.SyncStatus, local))

	server := local
	server.ID = "server-9"
	server.SyncStatus = domain.SyncSynced
	require.NoError(t, s.Replace(domain.CollectionExpenses, "local-1", "server-9", "u1", domain.SyncSynced, server))

	got, err := All[domain.Expense](s, domain.CollectionExpenses, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "server-9", got[0].ID)
	assert.Equal(t, domain.SyncSynced, got[0].SyncStatus)

	_, err = Get[domain.Expense](s, domain.CollectionExpenses, "local-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatusKeepsPayloadConsistent(t *testing.T) {
	s := openStore(t)

	sale := domain.Sale{ID: "s1", UserID: "u1", TotalAmount: 100, SaleDate: time.Now(), SyncStatus: domain.SyncSynced}
	require.NoError(t, s.Put(domain.CollectionSales, sale.ID, sale.UserID, sale.SyncStatus, sale))
	require.NoError(t, s.SetStatus(domain.CollectionSales, "s1", domain.SyncPending))

	got, err := Get[domain.Sale](s, domain.CollectionSales, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncPending, got.SyncStatus)

	pending, err := s.Pending("u1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
