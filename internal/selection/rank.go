package selection

import (
	"github.com/dostavka/selection-service/internal/catalog"
)

// TopFulfilled keeps only the pharmacies that resolved the maximum number
// of request lines. Input order is preserved, so ties are deterministic.
func TopFulfilled(offers []*catalog.PharmacyOffer) []*catalog.PharmacyOffer {
	maxLines := 0
	for _, o := range offers {
		if len(o.Lines) > maxLines {
			maxLines = len(o.Lines)
		}
	}
	if maxLines == 0 {
		return nil
	}

	top := make([]*catalog.PharmacyOffer, 0, len(offers))
	for _, o := range offers {
		if len(o.Lines) == maxLines {
			top = append(top, o)
		}
	}
	return top
}
