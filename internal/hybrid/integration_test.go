package hybrid

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dokanhisab/m/domain"
	"dokanhisab/m/internal/api"
	"dokanhisab/m/internal/cache"
	"dokanhisab/m/internal/database"
	"dokanhisab/m/internal/migrations"
	"dokanhisab/m/internal/netmon"
	"dokanhisab/m/internal/remote"
)

// Full-path test: hybrid service talking to the real REST service through
// the real HTTP client, then losing connectivity and serving from the
// mirror.
func TestHybridAgainstRealService(t *testing.T) {
	db, err := database.Connect(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	server := httptest.NewServer(api.New(db, "test_secret").Router())
	t.Cleanup(server.Close)

	client := remote.New(server.URL, zap.NewNop())
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	auth, err := client.Register(ctx, "rahim", "secret123", "Rahim Store")
	require.NoError(t, err)
	client.SetToken(auth.Token)

	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	monitor := netmon.New(true)
	svc := NewService(store, client, monitor, zap.NewNop())
	t.Cleanup(svc.Close)

	session := domain.Session{OwnerID: auth.User.ID, Policy: domain.SyncPolicy{AllowRemoteSync: true}}

	customer, err := svc.CreateCustomer(ctx, session, CustomerParams{Name: "Karim", Phone: "01712345678"})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSynced, customer.SyncStatus)

	sale, err := svc.CreateSale(ctx, session, SaleParams{
		CustomerID:   &customer.ID,
		CustomerName: customer.Name,
		Items:        []domain.SaleItem{{ProductName: "Rice", Quantity: 2, UnitPrice: 80, Total: 160}},
		TotalAmount:  160, PaidAmount: 100, DueAmount: 60,
		PaymentMethod: domain.PaymentMixed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSynced, sale.SyncStatus)

	// The write invalidated the response caches, so this read hits the
	// server and mirrors its result.
	sales := svc.Sales(ctx, session.OwnerID, 0)
	require.Len(t, sales, 1)
	require.Len(t, sales[0].Items, 1)
	assert.Equal(t, "Rice", sales[0].Items[0].ProductName)

	st := svc.Stats(ctx, session.OwnerID)
	assert.InDelta(t, 160.0, st.TotalSales, 1e-9)
	assert.InDelta(t, 60.0, st.PendingCollection, 1e-9)

	// Connectivity drops: reads keep working from the mirror.
	monitor.Set(false)
	svc.Invalidate(session.OwnerID)

	offlineSales := svc.Sales(ctx, session.OwnerID, 0)
	require.Len(t, offlineSales, 1)
	assert.Equal(t, sales[0].ID, offlineSales[0].ID)

	offlineStats := svc.Stats(ctx, session.OwnerID)
	assert.InDelta(t, st.TotalSales, offlineStats.TotalSales, 1e-9)
	assert.InDelta(t, st.PendingCollection, offlineStats.PendingCollection, 1e-9)

	// An offline collection reduces the derived due on the next recompute.
	_, err = svc.CreateCollection(ctx, session, CollectionParams{CustomerID: customer.ID, Amount: 60})
	require.NoError(t, err)

	settled := svc.Stats(ctx, session.OwnerID)
	assert.InDelta(t, 0.0, settled.PendingCollection, 1e-9)
}
