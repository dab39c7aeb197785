package store

import "time"

// Disposition is the lifecycle state of a purchase.
type Disposition string

const (
	DispositionOpen      Disposition = "open"
	DispositionSold      Disposition = "sold"
	DispositionDelivered Disposition = "delivered"
)

// ParseDisposition maps a query value onto a Disposition. The empty string means any.
func ParseDisposition(s string) (Disposition, bool) {
	switch Disposition(s) {
	case "", DispositionOpen, DispositionSold, DispositionDelivered:
		return Disposition(s), true
	}
	return "", false
}

// PurchaseFilter narrows ListPurchases. Zero values match everything.
type PurchaseFilter struct {
	Disposition Disposition
	Item        string
}

// LedgerSummary is a point-in-time count of purchases per state.
type LedgerSummary struct {
	Open            int64      `json:"open"`
	Sold            int64      `json:"sold"`
	Delivered       int64      `json:"delivered"`
	ProcessedFiles  int64      `json:"processedFiles"`
	LastProcessedAt *time.Time `json:"lastProcessedAt"`
}

// Transition stamps a purchase leaving the Open state.
type Transition struct {
	Station string
	At      time.Time
}
