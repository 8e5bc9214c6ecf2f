package hybrid

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"dokanhisab/m/domain"
	"dokanhisab/m/internal/cache"
)

// Reads never surface errors: the online attempt is silently demoted to the
// cached copy, and a broken cache yields an empty result. The worst case a
// view can see is an empty list, never a hard failure.

// Customers returns the best-available customer list for the owner.
func (s *Service) Customers(ctx context.Context, owner string) []domain.Customer {
	if owner == "" {
		return []domain.Customer{}
	}
	return fetchCached(s, domain.CollectionCustomers, owner, 0, listFreshness, func() []domain.Customer {
		if s.net.IsOnline() {
			list, err := s.remote.Customers(ctx, owner)
			if err == nil {
				for _, c := range list {
					s.mirror(domain.CollectionCustomers, c.ID, owner, c)
				}
				return list
			}
			s.demote(domain.CollectionCustomers, owner, err)
		}
		return fromCache[domain.Customer](s, domain.CollectionCustomers, owner)
	})
}

// Products returns the best-available product list for the owner.
func (s *Service) Products(ctx context.Context, owner string) []domain.Product {
	if owner == "" {
		return []domain.Product{}
	}
	return fetchCached(s, domain.CollectionProducts, owner, 0, listFreshness, func() []domain.Product {
		if s.net.IsOnline() {
			list, err := s.remote.Products(ctx, owner)
			if err == nil {
				for _, p := range list {
					s.mirror(domain.CollectionProducts, p.ID, owner, p)
				}
				return list
			}
			s.demote(domain.CollectionProducts, owner, err)
		}
		return fromCache[domain.Product](s, domain.CollectionProducts, owner)
	})
}

// LowStockProducts returns products at or below their restock threshold.
// The offline path filters the cached product mirror with the same rule the
// server applies.
func (s *Service) LowStockProducts(ctx context.Context, owner string) []domain.Product {
	if owner == "" {
		return []domain.Product{}
	}
	return fetchCached(s, "products/low-stock", owner, 0, listFreshness, func() []domain.Product {
		if s.net.IsOnline() {
			list, err := s.remote.LowStockProducts(ctx, owner)
			if err == nil {
				return list
			}
			s.demote("products/low-stock", owner, err)
		}
		all := fromCache[domain.Product](s, domain.CollectionProducts, owner)
		low := make([]domain.Product, 0, len(all))
		for _, p := range all {
			if p.LowStock() {
				low = append(low, p)
			}
		}
		return low
	})
}

// Sales returns the most recent sales for the owner, newest first. limit
// of zero means no limit.
func (s *Service) Sales(ctx context.Context, owner string, limit int) []domain.Sale {
	if owner == "" {
		return []domain.Sale{}
	}
	return fetchCached(s, domain.CollectionSales, owner, limit, listFreshness, func() []domain.Sale {
		if s.net.IsOnline() {
			list, err := s.remote.Sales(ctx, owner, limit)
			if err == nil {
				for _, sale := range list {
					s.mirror(domain.CollectionSales, sale.ID, owner, sale)
				}
				return list
			}
			s.demote(domain.CollectionSales, owner, err)
		}
		list := fromCache[domain.Sale](s, domain.CollectionSales, owner)
		sort.Slice(list, func(i, j int) bool { return list[i].When().After(list[j].When()) })
		return applyLimit(list, limit)
	})
}

// Expenses returns the most recent expenses for the owner, newest first.
func (s *Service) Expenses(ctx context.Context, owner string, limit int) []domain.Expense {
	if owner == "" {
		return []domain.Expense{}
	}
	return fetchCached(s, domain.CollectionExpenses, owner, limit, listFreshness, func() []domain.Expense {
		if s.net.IsOnline() {
			list, err := s.remote.Expenses(ctx, owner, limit)
			if err == nil {
				for _, e := range list {
					s.mirror(domain.CollectionExpenses, e.ID, owner, e)
				}
				return list
			}
			s.demote(domain.CollectionExpenses, owner, err)
		}
		list := fromCache[domain.Expense](s, domain.CollectionExpenses, owner)
		sort.Slice(list, func(i, j int) bool { return list[i].When().After(list[j].When()) })
		return applyLimit(list, limit)
	})
}

// Collections returns the most recent debt collections for the owner,
// newest first.
func (s *Service) Collections(ctx context.Context, owner string, limit int) []domain.Collection {
	if owner == "" {
		return []domain.Collection{}
	}
	return fetchCached(s, domain.CollectionCollections, owner, limit, listFreshness, func() []domain.Collection {
		if s.net.IsOnline() {
			list, err := s.remote.Collections(ctx, owner, limit)
			if err == nil {
				for _, c := range list {
					s.mirror(domain.CollectionCollections, c.ID, owner, c)
				}
				return list
			}
			s.demote(domain.CollectionCollections, owner, err)
		}
		list := fromCache[domain.Collection](s, domain.CollectionCollections, owner)
		sort.Slice(list, func(i, j int) bool { return list[i].When().After(list[j].When()) })
		return applyLimit(list, limit)
	})
}

// Stats returns the dashboard aggregate. Online it comes from the server;
// offline it is recomputed from the cached customers, sales, expenses and
// collections, producing the same shape.
func (s *Service) Stats(ctx context.Context, owner string) domain.Stats {
	if owner == "" {
		return domain.Stats{}
	}
	return fetchCached(s, "stats", owner, 0, statsFreshness, func() domain.Stats {
		if s.net.IsOnline() {
			st, err := s.remote.Stats(ctx, owner)
			if err == nil {
				return st
			}
			s.demote("stats", owner, err)
		}
		customers := fromCache[domain.Customer](s, domain.CollectionCustomers, owner)
		sales := fromCache[domain.Sale](s, domain.CollectionSales, owner)
		expenses := fromCache[domain.Expense](s, domain.CollectionExpenses, owner)
		collections := fromCache[domain.Collection](s, domain.CollectionCollections, owner)
		return domain.ComputeStats(s.now(), customers, sales, expenses, collections)
	})
}

// CustomerDueBalance resolves one customer's outstanding balance from the
// best-available sales and collections, through the single aggregation in
// the domain package.
func (s *Service) CustomerDueBalance(ctx context.Context, owner string, customer domain.Customer) float64 {
	sales := s.Sales(ctx, owner, 0)
	collections := s.Collections(ctx, owner, 0)
	return domain.DueBalance(customer, sales, collections)
}

// mirror overwrites the local copy of a server-read record. Records read
// from the remote service are by definition synced.
func (s *Service) mirror(collection, id, owner string, record any) {
	if err := s.cache.Put(collection, id, owner, domain.SyncSynced, record); err != nil {
		s.logger.Warn("failed to mirror record into cache",
			zap.String("collection", collection), zap.String("id", id), zap.Error(err))
	}
}

func (s *Service) demote(entity, owner string, err error) {
	s.logger.Warn("remote read failed, falling back to cache",
		zap.String("entity", entity), zap.String("owner", owner), zap.Error(err))
}

func fromCache[T any](s *Service, collection, owner string) []T {
	list, err := cache.All[T](s.cache, collection, owner)
	if err != nil {
		s.logger.Warn("cache read failed, returning empty result",
			zap.String("collection", collection), zap.String("owner", owner), zap.Error(err))
		return []T{}
	}
	return list
}

func applyLimit[T any](list []T, limit int) []T {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
