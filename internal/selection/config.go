package selection

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config contains the tunables of the selection pipeline.
type Config struct {
	// Shortlist sizes
	ClosestCount  int // pharmacies kept on the closest shortlist
	CheapestCount int // pharmacies kept on the cheapest shortlist

	// Temporal evaluation
	ClosingSoonWindow time.Duration // remaining open time that counts as "closing soon"
	BusinessTimezone  string        // IANA zone all schedules are evaluated in

	// DiscountMargin is the factor a CLOSED pharmacy must undercut the best
	// open quote by (price or ETA) to be offered as an alternative.
	DiscountMargin decimal.Decimal

	// StrictPricing aborts the whole request on the first per-pharmacy
	// pricing failure. When false, a failed pharmacy yields zero quotes.
	StrictPricing bool

	// Validation limits
	MaxSKUs int // maximum request lines accepted
}

// DefaultConfig returns the default selection configuration.
func DefaultConfig() *Config {
	return &Config{
		ClosestCount:      2,
		CheapestCount:     3,
		ClosingSoonWindow: time.Hour,
		BusinessTimezone:  "Asia/Almaty",
		DiscountMargin:    decimal.RequireFromString("0.7"),
		StrictPricing:     false,
		MaxSKUs:           50,
	}
}
