package selection

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dostavka/selection-service/internal/catalog"
)

// PriorityFilter resolves an ordered SKU list against raw search results,
// one round per request line, choosing the original product or its cheapest
// qualifying analog per pharmacy.
type PriorityFilter struct {
	logger zerolog.Logger
}

// NewPriorityFilter creates a priority filter.
func NewPriorityFilter() *PriorityFilter {
	return &PriorityFilter{
		logger: log.With().Str("component", "priority_filter").Logger(),
	}
}

// draft is the per-pharmacy working state threaded through the rounds.
type draft struct {
	index        int // position in the input, used for deterministic assembly
	source       catalog.PharmacySource
	products     []catalog.Product // not yet resolved against a request line
	lines        []catalog.LineItem
	replacements int
	replaced     []catalog.Replacement
}

func (d *draft) clone() *draft {
	c := *d
	c.products = append([]catalog.Product(nil), d.products...)
	c.lines = append([]catalog.LineItem(nil), d.lines...)
	c.replaced = append([]catalog.Replacement(nil), d.replaced...)
	return &c
}

// Filter runs the rounds in request order and returns pharmacies annotated
// with their resolved lines. Pharmacies that resolved nothing are dropped.
//
// Round semantics: a pharmacy carries into the next round only if it
// resolved the current round's SKU. A pharmacy that resolved earlier lines
// but fails a later round is parked and rejoins for the final fulfillment
// comparison. A round where every pharmacy fails leaves the active set
// untouched; this is policy, not a failure.
func (f *PriorityFilter) Filter(pharmacies []catalog.Pharmacy, skus []catalog.SkuRequest) []*catalog.PharmacyOffer {
	active := make([]*draft, 0, len(pharmacies))
	for i, ph := range pharmacies {
		active = append(active, &draft{
			index:    i,
			source:   ph.Source,
			products: append([]catalog.Product(nil), ph.Products...),
		})
	}

	var parked []*draft
	for round, req := range skus {
		matched, fallout := f.round(active, req)
		if len(matched) == 0 {
			f.logger.Debug().
				Int("round", round+1).
				Str("sku", req.SKU).
				Msg("no pharmacy resolved this line, keeping previous round's set")
			continue
		}
		for _, d := range fallout {
			if len(d.lines) > 0 {
				parked = append(parked, d)
			}
		}
		active = matched

		f.logger.Debug().
			Int("round", round+1).
			Str("sku", req.SKU).
			Int("surviving", len(active)).
			Msg("round complete")
	}

	return assemble(len(pharmacies), active, parked)
}

// round resolves one request line over the current set. Both returned
// slices hold fresh copies, so a round that ends up discarded leaves the
// previous state intact.
func (f *PriorityFilter) round(active []*draft, req catalog.SkuRequest) (matched, fallout []*draft) {
	for _, cur := range active {
		d := cur.clone()

		idx := -1
		for i, p := range d.products {
			if p.SKU == req.SKU {
				idx = i
				break
			}
		}
		if idx < 0 {
			fallout = append(fallout, d)
			continue
		}

		product := d.products[idx]
		d.products = append(d.products[:idx], d.products[idx+1:]...)

		if product.Quantity >= req.CountDesired {
			d.lines = append(d.lines, catalog.LineItem{
				SKU:       product.SKU,
				Name:      product.Name,
				UnitPrice: product.BasePrice,
				Quantity:  req.CountDesired,
				Source:    catalog.LineOriginal,
			})
			matched = append(matched, d)
			continue
		}

		analog, ok := cheapestQualifyingAnalog(product.Analogs, req.CountDesired)
		if !ok {
			// Insufficient stock and no qualifying analog: this line's
			// product is gone, but the pharmacy itself stays in play.
			fallout = append(fallout, d)
			continue
		}

		d.lines = append(d.lines, catalog.LineItem{
			SKU:         analog.SKU,
			Name:        analog.Name,
			UnitPrice:   analog.BasePrice,
			Quantity:    req.CountDesired,
			Source:      catalog.LineAnalog,
			OriginalSKU: product.SKU,
		})
		d.replacements++
		d.replaced = append(d.replaced, catalog.Replacement{
			OriginalSKU:    product.SKU,
			ReplacementSKU: analog.SKU,
		})
		matched = append(matched, d)
	}
	return matched, fallout
}

// cheapestQualifyingAnalog picks the lowest-priced analog whose stock covers
// the desired count. Ties break by input order: the strict comparison keeps
// the first seen.
func cheapestQualifyingAnalog(analogs []catalog.Product, countDesired int64) (catalog.Product, bool) {
	var best catalog.Product
	found := false
	for _, a := range analogs {
		if a.Quantity < countDesired {
			continue
		}
		if !found || a.BasePrice.LessThan(best.BasePrice) {
			best = a
			found = true
		}
	}
	return best, found
}

// assemble merges the surviving and parked drafts back into input order and
// computes each basket total over resolved lines only.
func assemble(total int, active, parked []*draft) []*catalog.PharmacyOffer {
	byIndex := make([]*draft, total)
	for _, d := range parked {
		byIndex[d.index] = d
	}
	for _, d := range active {
		byIndex[d.index] = d
	}

	offers := make([]*catalog.PharmacyOffer, 0, total)
	for _, d := range byIndex {
		if d == nil || len(d.lines) == 0 {
			continue
		}
		sum := decimal.Zero
		for _, line := range d.lines {
			sum = sum.Add(line.LineTotal())
		}
		offers = append(offers, &catalog.PharmacyOffer{
			Source:             d.source,
			Lines:              d.lines,
			TotalSum:           sum,
			ReplacementsNeeded: d.replacements,
			ReplacedSKUs:       d.replaced,
		})
	}
	return offers
}
