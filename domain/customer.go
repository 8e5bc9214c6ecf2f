package domain

import "time"

type Customer struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	Name          string     `db:"name" json:"name"`
	Phone         string     `db:"phone" json:"phone"`
	Address       string     `db:"address" json:"address"`
	CreditBalance float64    `db:"credit_balance" json:"credit_balance"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	SyncStatus    SyncStatus `db:"sync_status" json:"sync_status"`
}
