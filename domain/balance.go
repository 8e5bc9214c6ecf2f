package domain

// DueBalance is the single source of truth for a customer's outstanding
// balance: the stored credit figure plus the sum of sale due amounts minus
// the sum of collections recorded against the customer. Every view that
// shows a due balance must go through this function rather than re-deriving
// it.
func DueBalance(c Customer, sales []Sale, collections []Collection) float64 {
	due := c.CreditBalance
	for _, s := range sales {
		if s.CustomerID != nil && *s.CustomerID == c.ID {
			due += s.DueAmount
		}
	}
	for _, col := range collections {
		if col.CustomerID == c.ID {
			due -= col.Amount
		}
	}
	return due
}
