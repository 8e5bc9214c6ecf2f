package hybrid

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dokanhisab/m/domain"
	"dokanhisab/m/internal/cache"
	"dokanhisab/m/internal/remote"
)

// Writes are local-first: the record is persisted into the cache before any
// network attempt, so the optimistic UI update never depends on
// connectivity. A local persistence failure is the only thing that aborts a
// write before the record exists. An unreachable or failing service leaves
// the record pending_sync and still resolves successfully, but a rejection
// (the service received the push and refused it with a 4xx) is returned to
// the caller alongside the local record, which stays in the cache tagged
// pending_sync. After any write every response cache for the owner is
// invalidated, since a write to one entity changes aggregates of the others.

// CustomerParams is the caller-supplied part of a new customer.
type CustomerParams struct {
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	CreditBalance float64 `json:"credit_balance"`
}

// ProductParams is the caller-supplied part of a new product.
type ProductParams struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Unit          string  `json:"unit"`
	BuyingPrice   float64 `json:"buying_price"`
	SellingPrice  float64 `json:"selling_price"`
	CurrentStock  float64 `json:"current_stock"`
	MinStockLevel float64 `json:"min_stock_level"`
}

// SaleParams is the caller-supplied part of a new sale. SaleDate defaults
// to now when zero.
type SaleParams struct {
	CustomerID    *string           `json:"customer_id,omitempty"`
	CustomerName  string            `json:"customer_name"`
	Items         []domain.SaleItem `json:"items"`
	TotalAmount   float64           `json:"total_amount"`
	PaidAmount    float64           `json:"paid_amount"`
	DueAmount     float64           `json:"due_amount"`
	PaymentMethod string            `json:"payment_method"`
	SaleDate      time.Time         `json:"sale_date"`
}

// ExpenseParams is the caller-supplied part of a new expense. ExpenseDate
// defaults to now when zero.
type ExpenseParams struct {
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date"`
}

// CollectionParams is the caller-supplied part of a new collection.
// CollectionDate defaults to now when zero.
type CollectionParams struct {
	CustomerID     string    `json:"customer_id"`
	Amount         float64   `json:"amount"`
	CollectionDate time.Time `json:"collection_date"`
}

// initialStatus decides the sync tag of the freshly persisted local copy.
// Sessions barred from remote sync own their data outright, so their
// records are synced by definition; otherwise the tag is optimistic while
// online and pending while offline.
func (s *Service) initialStatus(session domain.Session) domain.SyncStatus {
	if !session.Policy.AllowRemoteSync {
		return domain.SyncSynced
	}
	if s.net.IsOnline() {
		return domain.SyncSynced
	}
	return domain.SyncPending
}

func (s *Service) shouldPush(session domain.Session) bool {
	return session.Policy.AllowRemoteSync && s.net.IsOnline()
}

// CreateCustomer records a new customer.
func (s *Service) CreateCustomer(ctx context.Context, session domain.Session, p CustomerParams) (domain.Customer, error) {
	if session.OwnerID == "" {
		return domain.Customer{}, ErrNoOwner
	}
	customer := domain.Customer{
		ID:            s.newID(),
		UserID:        session.OwnerID,
		Name:          p.Name,
		Phone:         p.Phone,
		Address:       p.Address,
		CreditBalance: p.CreditBalance,
		CreatedAt:     s.now(),
		SyncStatus:    s.initialStatus(session),
	}
	if err := s.cache.Put(domain.CollectionCustomers, customer.ID, session.OwnerID, customer.SyncStatus, customer); err != nil {
		return domain.Customer{}, err
	}
	var rejected error
	if s.shouldPush(session) {
		created, err := s.remote.CreateCustomer(ctx, session.OwnerID, customer)
		if err == nil {
			created.SyncStatus = domain.SyncSynced
			s.adopt(domain.CollectionCustomers, customer.ID, created.ID, session.OwnerID, created)
			customer = created
		} else {
			customer.SyncStatus, rejected = s.pushFailed(domain.CollectionCustomers, customer.ID, err)
		}
	}
	s.queries.Invalidate(session.OwnerID)
	return customer, rejected
}

// CreateProduct records a new product.
func (s *Service) CreateProduct(ctx context.Context, session domain.Session, p ProductParams) (domain.Product, error) {
	if session.OwnerID == "" {
		return domain.Product{}, ErrNoOwner
	}
	product := domain.Product{
		ID:            s.newID(),
		UserID:        session.OwnerID,
		Name:          p.Name,
		Category:      p.Category,
		Unit:          p.Unit,
		BuyingPrice:   p.BuyingPrice,
		SellingPrice:  p.SellingPrice,
		CurrentStock:  p.CurrentStock,
		MinStockLevel: p.MinStockLevel,
		CreatedAt:     s.now(),
		SyncStatus:    s.initialStatus(session),
	}
	if err := s.cache.Put(domain.CollectionProducts, product.ID, session.OwnerID, product.SyncStatus, product); err != nil {
		return domain.Product{}, err
	}
	var rejected error
	if s.shouldPush(session) {
		created, err := s.remote.CreateProduct(ctx, session.OwnerID, product)
		if err == nil {
			created.SyncStatus = domain.SyncSynced
			s.adopt(domain.CollectionProducts, product.ID, created.ID, session.OwnerID, created)
			product = created
		} else {
			product.SyncStatus, rejected = s.pushFailed(domain.CollectionProducts, product.ID, err)
		}
	}
	s.queries.Invalidate(session.OwnerID)
	return product, rejected
}

// CreateSale records a new sale.
func (s *Service) CreateSale(ctx context.Context, session domain.Session, p SaleParams) (domain.Sale, error) {
	if session.OwnerID == "" {
		return domain.Sale{}, ErrNoOwner
	}
	now := s.now()
	saleDate := p.SaleDate
	if saleDate.IsZero() {
		saleDate = now
	}
	sale := domain.Sale{
		ID:            s.newID(),
		UserID:        session.OwnerID,
		CustomerID:    p.CustomerID,
		CustomerName:  p.CustomerName,
		Items:         p.Items,
		TotalAmount:   p.TotalAmount,
		PaidAmount:    p.PaidAmount,
		DueAmount:     p.DueAmount,
		PaymentMethod: p.PaymentMethod,
		SaleDate:      saleDate,
		CreatedAt:     now,
		SyncStatus:    s.initialStatus(session),
	}
	if err := s.cache.Put(domain.CollectionSales, sale.ID, session.OwnerID, sale.SyncStatus, sale); err != nil {
		return domain.Sale{}, err
	}
	var rejected error
	if s.shouldPush(session) {
		created, err := s.remote.CreateSale(ctx, session.OwnerID, sale)
		if err == nil {
			created.SyncStatus = domain.SyncSynced
			s.adopt(domain.CollectionSales, sale.ID, created.ID, session.OwnerID, created)
			sale = created
		} else {
			sale.SyncStatus, rejected = s.pushFailed(domain.CollectionSales, sale.ID, err)
		}
	}
	s.queries.Invalidate(session.OwnerID)
	return sale, rejected
}

// CreateExpense records a new expense.
func (s *Service) CreateExpense(ctx context.Context, session domain.Session, p ExpenseParams) (domain.Expense, error) {
	if session.OwnerID == "" {
		return domain.Expense{}, ErrNoOwner
	}
	now := s.now()
	expenseDate := p.ExpenseDate
	if expenseDate.IsZero() {
		expenseDate = now
	}
	expense := domain.Expense{
		ID:          s.newID(),
		UserID:      session.OwnerID,
		Category:    p.Category,
		Amount:      p.Amount,
		Description: p.Description,
		ExpenseDate: expenseDate,
		CreatedAt:   now,
		SyncStatus:  s.initialStatus(session),
	}
	if err := s.cache.Put(domain.CollectionExpenses, expense.ID, session.OwnerID, expense.SyncStatus, expense); err != nil {
		return domain.Expense{}, err
	}
	var rejected error
	if s.shouldPush(session) {
		created, err := s.remote.CreateExpense(ctx, session.OwnerID, expense)
		if err == nil {
			created.SyncStatus = domain.SyncSynced
			s.adopt(domain.CollectionExpenses, expense.ID, created.ID, session.OwnerID, created)
			expense = created
		} else {
			expense.SyncStatus, rejected = s.pushFailed(domain.CollectionExpenses, expense.ID, err)
		}
	}
	s.queries.Invalidate(session.OwnerID)
	return expense, rejected
}

// CreateCollection records a repayment against a customer's due. The
// customer's cached due figure is not patched in place: the balance is
// derived through domain.DueBalance wherever it is displayed, so
// invalidating the response caches is sufficient.
func (s *Service) CreateCollection(ctx context.Context, session domain.Session, p CollectionParams) (domain.Collection, error) {
	if session.OwnerID == "" {
		return domain.Collection{}, ErrNoOwner
	}
	now := s.now()
	collectionDate := p.CollectionDate
	if collectionDate.IsZero() {
		collectionDate = now
	}
	col := domain.Collection{
		ID:             s.newID(),
		UserID:         session.OwnerID,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount,
		CollectionDate: collectionDate,
		CreatedAt:      now,
		SyncStatus:     s.initialStatus(session),
	}
	if err := s.cache.Put(domain.CollectionCollections, col.ID, session.OwnerID, col.SyncStatus, col); err != nil {
		return domain.Collection{}, err
	}
	var rejected error
	if s.shouldPush(session) {
		created, err := s.remote.CreateCollection(ctx, session.OwnerID, col)
		if err == nil {
			created.SyncStatus = domain.SyncSynced
			s.adopt(domain.CollectionCollections, col.ID, created.ID, session.OwnerID, created)
			col = created
		} else {
			col.SyncStatus, rejected = s.pushFailed(domain.CollectionCollections, col.ID, err)
		}
	}
	s.queries.Invalidate(session.OwnerID)
	return col, rejected
}

// UpdateProductStock adjusts a product's stock level, local-first like the
// creates.
func (s *Service) UpdateProductStock(ctx context.Context, session domain.Session, productID string, stock float64) (domain.Product, error) {
	if session.OwnerID == "" {
		return domain.Product{}, ErrNoOwner
	}
	status := s.initialStatus(session)
	err := s.cache.Update(domain.CollectionProducts, productID, map[string]any{
		"current_stock": stock,
		"sync_status":   string(status),
	})
	if err != nil {
		return domain.Product{}, err
	}
	product, err := cache.Get[domain.Product](s.cache, domain.CollectionProducts, productID)
	if err != nil {
		return domain.Product{}, err
	}
	var rejected error
	if s.shouldPush(session) {
		updated, err := s.remote.UpdateProduct(ctx, session.OwnerID, productID, map[string]any{"current_stock": stock})
		if err == nil {
			updated.SyncStatus = domain.SyncSynced
			s.adopt(domain.CollectionProducts, productID, updated.ID, session.OwnerID, updated)
			product = updated
		} else {
			product.SyncStatus, rejected = s.pushFailed(domain.CollectionProducts, productID, err)
		}
	}
	s.queries.Invalidate(session.OwnerID)
	return product, rejected
}

// adopt replaces the optimistic local copy with the server's authoritative
// record, dropping the client-generated id when the server assigned its own.
func (s *Service) adopt(collection, localID, remoteID, owner string, record any) {
	if err := s.cache.Replace(collection, localID, remoteID, owner, domain.SyncSynced, record); err != nil {
		s.logger.Warn("failed to adopt server record into cache",
			zap.String("collection", collection), zap.String("id", remoteID), zap.Error(err))
	}
}

// pushFailed settles a failed remote push. The local copy is retagged
// pending_sync either way; the returned error is non-nil only when the
// service rejected the write (4xx), which the caller must surface instead of
// swallowing into the offline path.
func (s *Service) pushFailed(collection, id string, pushErr error) (domain.SyncStatus, error) {
	status := s.keepPending(collection, id, pushErr)
	if remote.IsRejected(pushErr) {
		return status, pushErr
	}
	return status, nil
}

// keepPending retags the local copy after a failed remote push. The write
// still resolves successfully; the data is safe locally.
func (s *Service) keepPending(collection, id string, pushErr error) domain.SyncStatus {
	s.logger.Warn("remote write failed, keeping record pending_sync",
		zap.String("collection", collection), zap.String("id", id), zap.Error(pushErr))
	if err := s.cache.SetStatus(collection, id, domain.SyncPending); err != nil {
		s.logger.Warn("failed to retag record as pending_sync",
			zap.String("collection", collection), zap.String("id", id), zap.Error(err))
	}
	return domain.SyncPending
}
