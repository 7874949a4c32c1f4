package selection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dostavka/selection-service/internal/catalog"
)

// BestOptionResolver selects the cheapest and fastest open quotes from the
// merged shortlists, admitting closed-pharmacy quotes only when they beat
// the open choice by the configured discount margin.
type BestOptionResolver struct {
	evaluator *StatusEvaluator
	margin    decimal.Decimal
}

// NewBestOptionResolver creates a best-option resolver.
func NewBestOptionResolver(evaluator *StatusEvaluator, margin decimal.Decimal) *BestOptionResolver {
	return &BestOptionResolver{evaluator: evaluator, margin: margin}
}

// bestState is the reducer state threaded through the two passes.
type bestState struct {
	cheapestOpen *catalog.Quote
	fastestOpen  *catalog.Quote

	// Alternatives recorded while the best open pick is only closing soon.
	altCheapest *catalog.Quote
	altFastest  *catalog.Quote

	// Closed quotes that beat the open picks by the discount margin.
	cheapestClosed *catalog.Quote
	fastestClosed  *catalog.Quote
}

// Resolve reduces the quote set to a SelectionResult. Duplicated quotes
// from overlapping shortlists are harmless: a quote cannot win twice. An
// empty result (all fields nil) is a valid no-viable-option outcome.
func (r *BestOptionResolver) Resolve(quotes []catalog.Quote, now time.Time) catalog.SelectionResult {
	statuses := make([]OpenStatus, len(quotes))
	for i, q := range quotes {
		statuses[i] = r.evaluator.Evaluate(q.Offer.Source, now)
	}

	var st bestState

	// Pass 1: best open quotes, with stable alternatives whenever the
	// current pick is closing soon.
	for i := range quotes {
		q := &quotes[i]
		if q.Offer.Source.Code == "" {
			continue
		}
		if !statuses[i].IsOpen() {
			continue
		}

		if st.cheapestOpen == nil || q.TotalPrice.LessThan(st.cheapestOpen.TotalPrice) {
			st.cheapestOpen = q
			if statuses[i] == StatusOpenStable {
				st.altCheapest = nil
			} else if st.altCheapest == nil {
				st.altCheapest = r.stableBest(quotes, statuses, byPrice)
			}
		}

		if st.fastestOpen == nil || q.Delivery.ETA < st.fastestOpen.Delivery.ETA {
			st.fastestOpen = q
			if statuses[i] == StatusOpenStable {
				st.altFastest = nil
			} else if st.altFastest == nil {
				st.altFastest = r.stableBest(quotes, statuses, byETA)
			}
		}
	}

	// Pass 2: closed quotes competing against the open picks under the
	// discount margin.
	for i := range quotes {
		q := &quotes[i]
		if q.Offer.Source.Code == "" || statuses[i] != StatusClosed {
			continue
		}

		if st.cheapestOpen != nil {
			threshold := st.cheapestOpen.TotalPrice.Mul(r.margin)
			if q.TotalPrice.LessThanOrEqual(threshold) {
				if st.cheapestClosed == nil || q.TotalPrice.LessThan(st.cheapestClosed.TotalPrice) {
					st.cheapestClosed = q
				}
			}
		}

		if st.fastestOpen != nil {
			threshold := decimal.NewFromInt(st.fastestOpen.Delivery.ETA).Mul(r.margin)
			if decimal.NewFromInt(q.Delivery.ETA).LessThanOrEqual(threshold) {
				if st.fastestClosed == nil || q.Delivery.ETA < st.fastestClosed.Delivery.ETA {
					st.fastestClosed = q
				}
			}
		}
	}

	// A discounted closed quote overrides whatever alternative pass 1
	// recorded for closing-soon pharmacies.
	if st.cheapestClosed != nil && st.cheapestOpen != nil {
		return catalog.SelectionResult{
			CheapestOpen:        st.cheapestOpen,
			AlternativeCheapest: st.cheapestClosed,
			FastestOpen:         st.fastestOpen,
			AlternativeFastest:  st.fastestClosed,
		}
	}

	return catalog.SelectionResult{
		CheapestOpen:        st.cheapestOpen,
		AlternativeCheapest: st.altCheapest,
		FastestOpen:         st.fastestOpen,
		AlternativeFastest:  st.altFastest,
	}
}

// byPrice and byETA are the comparison axes for stable alternatives.
// Strict comparisons keep the first seen on ties.
func byPrice(a, b *catalog.Quote) bool {
	return a.TotalPrice.LessThan(b.TotalPrice)
}

func byETA(a, b *catalog.Quote) bool {
	return a.Delivery.ETA < b.Delivery.ETA
}

// stableBest scans the full quote set for the best OPEN_STABLE quote on the
// given axis.
func (r *BestOptionResolver) stableBest(quotes []catalog.Quote, statuses []OpenStatus, less func(a, b *catalog.Quote) bool) *catalog.Quote {
	var best *catalog.Quote
	for i := range quotes {
		q := &quotes[i]
		if statuses[i] != StatusOpenStable || q.Offer.Source.Code == "" {
			continue
		}
		if best == nil || less(q, best) {
			best = q
		}
	}
	return best
}
