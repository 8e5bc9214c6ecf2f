// Package hybrid implements the online/offline data layer.
//
// Every read tries the remote service when connectivity allows, mirrors the
// result into the local cache and falls back to that cache on failure or
// while offline. Every write persists locally first, then attempts the
// remote push, tagging the record's sync status with the outcome. A shared
// response cache de-duplicates concurrent reads and is invalidated across
// all entities after any write, since aggregates span entities.
package hybrid

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dokanhisab/m/domain"
	"dokanhisab/m/internal/cache"
	"dokanhisab/m/internal/netmon"
)

// ErrNoOwner is returned by writes when no owner id is present on the
// session. Reads return empty results instead.
var ErrNoOwner = errors.New("no authenticated owner")

// Remote is the surface of the remote data service the hybrid layer
// depends on. *remote.Client satisfies it.
type Remote interface {
	Customers(ctx context.Context, owner string) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, owner string, customer domain.Customer) (domain.Customer, error)

	Products(ctx context.Context, owner string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, owner string, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, owner, id string, partial map[string]any) (domain.Product, error)
	LowStockProducts(ctx context.Context, owner string) ([]domain.Product, error)

	Sales(ctx context.Context, owner string, limit int) ([]domain.Sale, error)
	CreateSale(ctx context.Context, owner string, sale domain.Sale) (domain.Sale, error)

	Expenses(ctx context.Context, owner string, limit int) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, owner string, expense domain.Expense) (domain.Expense, error)

	Collections(ctx context.Context, owner string, limit int) ([]domain.Collection, error)
	CreateCollection(ctx context.Context, owner string, collection domain.Collection) (domain.Collection, error)

	Stats(ctx context.Context, owner string) (domain.Stats, error)
}

// Service composes the local cache, the remote service and the network
// monitor into per-entity hybrid reads and writes.
type Service struct {
	cache   *cache.Store
	remote  Remote
	net     *netmon.Monitor
	logger  *zap.Logger
	queries *queryCache

	now   func() time.Time
	newID func() string

	done chan struct{}
}

// NewService wires the hybrid layer. It subscribes to the network monitor
// and marks all response caches stale on the offline-to-online transition so
// dependent reads refetch. Call Close to release the subscription.
func NewService(store *cache.Store, remote Remote, monitor *netmon.Monitor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cache:   store,
		remote:  remote,
		net:     monitor,
		logger:  logger,
		queries: newQueryCache(),
		now:     time.Now,
		newID:   uuid.NewString,
		done:    make(chan struct{}),
	}
	go s.watchNetwork(monitor.Subscribe())
	return s
}

// Close stops the network watcher.
func (s *Service) Close() {
	close(s.done)
}

func (s *Service) watchNetwork(transitions <-chan bool) {
	for {
		select {
		case <-s.done:
			return
		case online := <-transitions:
			if online {
				s.logger.Info("connectivity restored, marking response caches stale")
				s.queries.InvalidateAll()
			}
		}
	}
}

// Invalidate marks every cached response for the owner stale, forcing the
// next read of any entity to refetch.
func (s *Service) Invalidate(owner string) {
	s.queries.Invalidate(owner)
}
