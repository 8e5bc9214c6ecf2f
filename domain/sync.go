package domain

// SyncStatus marks whether a locally stored record matches the remote copy.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncPending SyncStatus = "pending_sync"
)

// Logical collection names, shared by the local cache and the REST routes.
const (
	CollectionCustomers   = "customers"
	CollectionProducts    = "products"
	CollectionSales       = "sales"
	CollectionExpenses    = "expenses"
	CollectionCollections = "collections"
)
