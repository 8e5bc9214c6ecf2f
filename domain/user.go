package domain

import "time"

type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"password,omitempty"`
	ShopName  string    `db:"shop_name" json:"shop_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SyncPolicy declares whether a session's writes may reach the remote
// service. Sandbox/demo sessions set AllowRemoteSync to false; their data
// stays on the device regardless of connectivity.
type SyncPolicy struct {
	AllowRemoteSync bool `json:"allow_remote_sync"`
}

// Session identifies the shopkeeper every read and write is scoped to.
type Session struct {
	OwnerID string     `json:"owner_id"`
	Policy  SyncPolicy `json:"policy"`
}
