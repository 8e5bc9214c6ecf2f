package domain

import "time"

type Product struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	Name          string     `db:"name" json:"name"`
	Category      string     `db:"category" json:"category"`
	Unit          string     `db:"unit" json:"unit"`
	BuyingPrice   float64    `db:"buying_price" json:"buying_price"`
	SellingPrice  float64    `db:"selling_price" json:"selling_price"`
	CurrentStock  float64    `db:"current_stock" json:"current_stock"`
	MinStockLevel float64    `db:"min_stock_level" json:"min_stock_level"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	SyncStatus    SyncStatus `db:"sync_status" json:"sync_status"`
}

// LowStock reports whether the product has fallen to its restock threshold.
func (p Product) LowStock() bool {
	return p.CurrentStock <= p.MinStockLevel
}
