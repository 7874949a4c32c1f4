package selection

import (
	"github.com/dostavka/selection-service/internal/catalog"
)

// WithMissingItems keeps only pharmacies where at least one request line
// cannot be satisfied by the original product or any of its analogs. This
// service handles the partial-availability path; fully stocked pharmacies
// are served by a different flow and are filtered out here.
func WithMissingItems(pharmacies []catalog.Pharmacy, skus []catalog.SkuRequest) []catalog.Pharmacy {
	out := make([]catalog.Pharmacy, 0, len(pharmacies))

	for _, ph := range pharmacies {
		if hasMissingLine(ph, skus) {
			out = append(out, ph)
		}
	}
	return out
}

func hasMissingLine(ph catalog.Pharmacy, skus []catalog.SkuRequest) bool {
	for _, req := range skus {
		if !lineSatisfiable(ph.Products, req) {
			return true
		}
	}
	return false
}

func lineSatisfiable(products []catalog.Product, req catalog.SkuRequest) bool {
	for _, p := range products {
		if p.SKU != req.SKU {
			continue
		}
		if p.Quantity >= req.CountDesired {
			return true
		}
		for _, analog := range p.Analogs {
			if analog.Quantity >= req.CountDesired {
				return true
			}
		}
		// First product with a matching SKU decides the line.
		return false
	}
	return false
}
