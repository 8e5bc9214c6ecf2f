package api

import (
	"encoding/json"
	"fmt"
	"time"

	"dokanhisab/m/domain"
)

// Row types mirror the SQLite tables, which store timestamps as RFC 3339
// text and sale items as embedded JSON. toDomain converts back to the wire
// shapes; records served by the API are authoritative, hence synced.

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type userRow struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	Password  string `db:"password"`
	ShopName  string `db:"shop_name"`
	CreatedAt string `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		Username:  r.Username,
		ShopName:  r.ShopName,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

type customerRow struct {
	ID            string  `db:"id"`
	UserID        string  `db:"user_id"`
	Name          string  `db:"name"`
	Phone         string  `db:"phone"`
	Address       string  `db:"address"`
	CreditBalance float64 `db:"credit_balance"`
	CreatedAt     string  `db:"created_at"`
}

func (r customerRow) toDomain() domain.Customer {
	return domain.Customer{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		Phone:         r.Phone,
		Address:       r.Address,
		CreditBalance: r.CreditBalance,
		CreatedAt:     parseTime(r.CreatedAt),
		SyncStatus:    domain.SyncSynced,
	}
}

type productRow struct {
	ID            string  `db:"id"`
	UserID        string  `db:"user_id"`
	Name          string  `db:"name"`
	Category      string  `db:"category"`
	Unit          string  `db:"unit"`
	BuyingPrice   float64 `db:"buying_price"`
	SellingPrice  float64 `db:"selling_price"`
	CurrentStock  float64 `db:"current_stock"`
	MinStockLevel float64 `db:"min_stock_level"`
	CreatedAt     string  `db:"created_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		Category:      r.Category,
		Unit:          r.Unit,
		BuyingPrice:   r.BuyingPrice,
		SellingPrice:  r.SellingPrice,
		CurrentStock:  r.CurrentStock,
		MinStockLevel: r.MinStockLevel,
		CreatedAt:     parseTime(r.CreatedAt),
		SyncStatus:    domain.SyncSynced,
	}
}

type saleRow struct {
	ID            string  `db:"id"`
	UserID        string  `db:"user_id"`
	CustomerID    *string `db:"customer_id"`
	CustomerName  string  `db:"customer_name"`
	Items         string  `db:"items"`
	TotalAmount   float64 `db:"total_amount"`
	PaidAmount    float64 `db:"paid_amount"`
	DueAmount     float64 `db:"due_amount"`
	PaymentMethod string  `db:"payment_method"`
	SaleDate      string  `db:"sale_date"`
	CreatedAt     string  `db:"created_at"`
}

func (r saleRow) toDomain() (domain.Sale, error) {
	var items []domain.SaleItem
	if err := json.Unmarshal([]byte(r.Items), &items); err != nil {
		return domain.Sale{}, fmt.Errorf("decode sale %s items: %w", r.ID, err)
	}
	return domain.Sale{
		ID:            r.ID,
		UserID:        r.UserID,
		CustomerID:    r.CustomerID,
		CustomerName:  r.CustomerName,
		Items:         items,
		TotalAmount:   r.TotalAmount,
		PaidAmount:    r.PaidAmount,
		DueAmount:     r.DueAmount,
		PaymentMethod: r.PaymentMethod,
		SaleDate:      parseTime(r.SaleDate),
		CreatedAt:     parseTime(r.CreatedAt),
		SyncStatus:    domain.SyncSynced,
	}, nil
}

type expenseRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Category    string  `db:"category"`
	Amount      float64 `db:"amount"`
	Description string  `db:"description"`
	ExpenseDate string  `db:"expense_date"`
	CreatedAt   string  `db:"created_at"`
}

func (r expenseRow) toDomain() domain.Expense {
	return domain.Expense{
		ID:          r.ID,
		UserID:      r.UserID,
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		ExpenseDate: parseTime(r.ExpenseDate),
		CreatedAt:   parseTime(r.CreatedAt),
		SyncStatus:  domain.SyncSynced,
	}
}

type collectionRow struct {
	ID             string  `db:"id"`
	UserID         string  `db:"user_id"`
	CustomerID     string  `db:"customer_id"`
	Amount         float64 `db:"amount"`
	CollectionDate string  `db:"collection_date"`
	CreatedAt      string  `db:"created_at"`
}

func (r collectionRow) toDomain() domain.Collection {
	return domain.Collection{
		ID:             r.ID,
		UserID:         r.UserID,
		CustomerID:     r.CustomerID,
		Amount:         r.Amount,
		CollectionDate: parseTime(r.CollectionDate),
		CreatedAt:      parseTime(r.CreatedAt),
		SyncStatus:     domain.SyncSynced,
	}
}

// Select helpers shared by the list handlers and the dashboard aggregate.

func (h *Handler) selectCustomers(owner string) ([]domain.Customer, error) {
	var rows []customerRow
	err := h.db.Select(&rows, `SELECT id, user_id, name, phone, address, credit_balance, created_at
		FROM customers WHERE user_id = $1 ORDER BY name`, owner)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Customer, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (h *Handler) selectProducts(owner string, lowOnly bool) ([]domain.Product, error) {
	query := `SELECT id, user_id, name, category, unit, buying_price, selling_price, current_stock, min_stock_level, created_at
		FROM products WHERE user_id = $1`
	if lowOnly {
		query += ` AND current_stock <= min_stock_level`
	}
	query += ` ORDER BY name`
	var rows []productRow
	if err := h.db.Select(&rows, query, owner); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (h *Handler) selectSales(owner string, limit int, todayOnly bool) ([]domain.Sale, error) {
	query := `SELECT id, user_id, customer_id, customer_name, items, total_amount, paid_amount, due_amount, payment_method, sale_date, created_at
		FROM sales WHERE user_id = $1`
	args := []any{owner}
	if todayOnly {
		query += ` AND date(sale_date) = date('now')`
	}
	query += ` ORDER BY sale_date DESC`
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows []saleRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Sale, len(rows))
	for i, r := range rows {
		sale, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = sale
	}
	return out, nil
}

func (h *Handler) selectExpenses(owner string, limit int) ([]domain.Expense, error) {
	query := `SELECT id, user_id, category, amount, description, expense_date, created_at
		FROM expenses WHERE user_id = $1 ORDER BY expense_date DESC`
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows []expenseRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Expense, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (h *Handler) selectCollections(owner string, limit int) ([]domain.Collection, error) {
	query := `SELECT id, user_id, customer_id, amount, collection_date, created_at
		FROM collections WHERE user_id = $1 ORDER BY collection_date DESC`
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows []collectionRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Collection, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}
