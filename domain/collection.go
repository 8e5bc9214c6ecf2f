package domain

import "time"

// Collection is a repayment against a customer's outstanding due.
type Collection struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	CustomerID     string     `db:"customer_id" json:"customer_id"`
	Amount         float64    `db:"amount" json:"amount"`
	CollectionDate time.Time  `db:"collection_date" json:"collection_date"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	SyncStatus     SyncStatus `db:"sync_status" json:"sync_status"`
}

// When returns the collection's domain date, falling back to creation time.
func (c Collection) When() time.Time {
	if !c.CollectionDate.IsZero() {
		return c.CollectionDate
	}
	return c.CreatedAt
}
