package domain

import "time"

// Payment methods accepted on a sale.
const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
	PaymentMixed  = "mixed"
)

// SaleItem is one line of a sale. Items are embedded in the sale record
// rather than normalized into their own collection.
type SaleItem struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Sale records one transaction. The UI assumes
// TotalAmount = PaidAmount + DueAmount; it is not enforced here.
type Sale struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	CustomerID    *string    `db:"customer_id" json:"customer_id,omitempty"`
	CustomerName  string     `db:"customer_name" json:"customer_name"`
	Items         []SaleItem `db:"-" json:"items"`
	TotalAmount   float64    `db:"total_amount" json:"total_amount"`
	PaidAmount    float64    `db:"paid_amount" json:"paid_amount"`
	DueAmount     float64    `db:"due_amount" json:"due_amount"`
	PaymentMethod string     `db:"payment_method" json:"payment_method"`
	SaleDate      time.Time  `db:"sale_date" json:"sale_date"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	SyncStatus    SyncStatus `db:"sync_status" json:"sync_status"`
}

// When returns the sale's domain date, falling back to creation time.
func (s Sale) When() time.Time {
	if !s.SaleDate.IsZero() {
		return s.SaleDate
	}
	return s.CreatedAt
}
