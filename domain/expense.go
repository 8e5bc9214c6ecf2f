package domain

import "time"

type Expense struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Category    string     `db:"category" json:"category"`
	Amount      float64    `db:"amount" json:"amount"`
	Description string     `db:"description" json:"description"`
	ExpenseDate time.Time  `db:"expense_date" json:"expense_date"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	SyncStatus  SyncStatus `db:"sync_status" json:"sync_status"`
}

// When returns the expense's domain date, falling back to creation time.
func (e Expense) When() time.Time {
	if !e.ExpenseDate.IsZero() {
		return e.ExpenseDate
	}
	return e.CreatedAt
}
