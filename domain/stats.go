package domain

import "time"

// Stats is the dashboard aggregate. The remote service computes it in SQL;
// offline it is recomputed from the locally cached records, producing the
// same shape either way.
type Stats struct {
	TotalCustomers    int     `json:"total_customers"`
	SalesCount        int     `json:"sales_count"`
	ExpensesCount     int     `json:"expenses_count"`
	TotalSales        float64 `json:"total_sales"`
	TotalExpenses     float64 `json:"total_expenses"`
	TotalPaid         float64 `json:"total_paid"`
	TotalDue          float64 `json:"total_due"`
	Profit            float64 `json:"profit"`
	TodaySales        float64 `json:"today_sales"`
	TodayProfit       float64 `json:"today_profit"`
	PendingCollection float64 `json:"pending_collection"`
}

// ComputeStats derives the dashboard aggregate from a snapshot of one
// owner's customers, sales, expenses and collections. "Today" is the
// calendar day of now in its own location. Profit is sales minus expenses;
// per-item margins are not considered.
func ComputeStats(now time.Time, customers []Customer, sales []Sale, expenses []Expense, collections []Collection) Stats {
	st := Stats{
		TotalCustomers: len(customers),
		SalesCount:     len(sales),
		ExpensesCount:  len(expenses),
	}

	var todayExpenses float64
	for _, s := range sales {
		st.TotalSales += s.TotalAmount
		st.TotalPaid += s.PaidAmount
		st.TotalDue += s.DueAmount
		if sameDay(s.When(), now) {
			st.TodaySales += s.TotalAmount
		}
	}
	for _, e := range expenses {
		st.TotalExpenses += e.Amount
		if sameDay(e.When(), now) {
			todayExpenses += e.Amount
		}
	}

	st.Profit = st.TotalSales - st.TotalExpenses
	st.TodayProfit = st.TodaySales - todayExpenses
	for _, c := range customers {
		st.PendingCollection += DueBalance(c, sales, collections)
	}
	return st
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
