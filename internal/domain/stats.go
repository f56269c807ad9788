package domain

// Stats holds aggregate counters for the admin panel
type Stats struct {
	TotalUsers        int
	PaidUsers         int
	Generations       int
	SucceededPayments int
	Revenue           float64
}
