package domain

import "time"

// Animal is the share-count record for one sacrificial animal plus its catalogue details.
// Prices are integer minor units.
type Animal struct {
	ID            string
	Name          string
	Category      string
	Breed         string
	WeightKg      int
	Age           string
	Price         int64
	PricePerShare int64
	ImageURL      string
	TotalShares   int
	BookedShares  int
	Version       int64
	CreatedAt     time.Time
}

// RemainingShares ignores holds; see availability.Compute for the hold-aware figure.
func (a Animal) RemainingShares() int {
	if a.BookedShares >= a.TotalShares {
		return 0
	}
	return a.TotalShares - a.BookedShares
}
