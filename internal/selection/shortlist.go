package selection

import (
	"math"
	"sort"

	"github.com/dostavka/selection-service/internal/catalog"
)

// Shortlister picks the bounded candidate lists handed to delivery pricing.
// The two lists are independent and may overlap.
type Shortlister struct {
	cfg *Config
}

// NewShortlister creates a shortlister with the given configuration.
func NewShortlister(cfg *Config) *Shortlister {
	return &Shortlister{cfg: cfg}
}

// Closest returns up to ClosestCount pharmacies nearest to the requester.
// Pharmacies without coordinates are excluded from this list only.
func (s *Shortlister) Closest(offers []*catalog.PharmacyOffer, from catalog.GeoPoint) []*catalog.PharmacyOffer {
	type withDistance struct {
		offer    *catalog.PharmacyOffer
		distance float64
	}

	candidates := make([]withDistance, 0, len(offers))
	for _, o := range offers {
		if o.Source.Lat == nil || o.Source.Lon == nil {
			continue
		}
		candidates = append(candidates, withDistance{
			offer:    o,
			distance: flatDistance(from.Lat, from.Lng, *o.Source.Lat, *o.Source.Lon),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	n := s.cfg.ClosestCount
	if len(candidates) < n {
		n = len(candidates)
	}
	out := make([]*catalog.PharmacyOffer, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.offer)
	}
	return out
}

// Cheapest returns up to CheapestCount pharmacies with the lowest basket
// total. An offer without resolved lines has no total and sorts last.
func (s *Shortlister) Cheapest(offers []*catalog.PharmacyOffer) []*catalog.PharmacyOffer {
	sorted := append([]*catalog.PharmacyOffer(nil), offers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if len(a.Lines) == 0 {
			return false
		}
		if len(b.Lines) == 0 {
			return true
		}
		return a.TotalSum.LessThan(b.TotalSum)
	})

	n := s.cfg.CheapestCount
	if len(sorted) < n {
		n = len(sorted)
	}
	return sorted[:n]
}

// flatDistance is the straight-line distance over raw degrees. It is a
// flat-plane approximation, not a geodesic; shortlist membership depends on
// it staying exactly this formula.
func flatDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Sqrt((lat2-lat1)*(lat2-lat1) + (lon2-lon1)*(lon2-lon1))
}
