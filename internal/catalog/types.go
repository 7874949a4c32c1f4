// Package catalog defines the domain model shared by the selection pipeline,
// the upstream clients, and the HTTP surface. Wire tags follow the inventory
// search and delivery pricing contracts.
package catalog

import (
	"github.com/shopspring/decimal"
)

// SkuRequest is one requested line item. The position of a line in the
// request slice defines its priority: earlier lines are resolved first.
type SkuRequest struct {
	SKU          string `json:"sku"`
	CountDesired int64  `json:"count_desired"`
}

// Product is a stocked product at a pharmacy as reported by the inventory
// search service. Analogs are substitute products of the same shape, one
// level deep.
type Product struct {
	SourceCode      string          `json:"source_code,omitempty"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name,omitempty"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Quantity        int64           `json:"quantity"`
	QuantityDesired *int64          `json:"quantity_desired,omitempty"`
	Analogs         []Product       `json:"analogs,omitempty"`
}

// PharmacySource identifies a pharmacy and its schedule for the current day.
// OpensAt and ClosesAt are UTC instants in "2006-01-02T15:04:05Z" form.
// Lat/Lon are pointers because some sources report no coordinates.
type PharmacySource struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	City         string   `json:"city,omitempty"`
	Address      string   `json:"address,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	OpensAt      string   `json:"opens_at,omitempty"`
	ClosesAt     string   `json:"closes_at,omitempty"`
	WorkingToday bool     `json:"working_today,omitempty"`
}

// Pharmacy is one raw inventory search result entry.
type Pharmacy struct {
	Source   PharmacySource `json:"source"`
	Products []Product      `json:"products"`
}

// LineSource tags how a resolved line was satisfied.
type LineSource string

const (
	LineOriginal LineSource = "original"
	LineAnalog   LineSource = "analog"
)

// LineItem is a resolved request line at one pharmacy: either the original
// product or the cheapest qualifying analog, normalized to one shape.
// OriginalSKU is set only when Source is LineAnalog.
type LineItem struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name,omitempty"`
	UnitPrice   decimal.Decimal `json:"base_price"`
	Quantity    int64           `json:"quantity_desired"`
	Source      LineSource      `json:"source"`
	OriginalSKU string          `json:"original_sku,omitempty"`
}

// LineTotal returns UnitPrice multiplied by the desired quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Replacement records one original-to-analog substitution for auditing.
type Replacement struct {
	OriginalSKU    string `json:"original_sku"`
	ReplacementSKU string `json:"replacement_sku"`
}

// PharmacyOffer is a pharmacy annotated with the lines it can fulfil and the
// basket total over those lines. TotalSum covers only resolved lines;
// unmatched request lines are absent, never priced as zero.
type PharmacyOffer struct {
	Source             PharmacySource  `json:"source"`
	Lines              []LineItem      `json:"products"`
	TotalSum           decimal.Decimal `json:"total_sum"`
	ReplacementsNeeded int             `json:"replacements_needed"`
	ReplacedSKUs       []Replacement   `json:"replaced_skus,omitempty"`
}

// GeoPoint is a requester location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryItem is one purchasable line sent to the pricing service.
type DeliveryItem struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// DeliveryRequest is the per-pharmacy request to the delivery pricing
// service.
type DeliveryRequest struct {
	Items      []DeliveryItem `json:"items"`
	Dst        GeoPoint       `json:"dst"`
	SourceCode string         `json:"source_code"`
}

// DeliveryOption is one delivery tier returned by the pricing service.
// ETA is in minutes.
type DeliveryOption struct {
	Price decimal.Decimal `json:"price"`
	ETA   int64           `json:"eta"`
}

// Quote combines a pharmacy offer with a single delivery option.
type Quote struct {
	Offer      *PharmacyOffer  `json:"pharmacy"`
	Delivery   DeliveryOption  `json:"delivery_option"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SelectionResult is the outcome of one decision: the cheapest and fastest
// open quotes plus their alternatives. Any field may be nil; an all-nil
// result means no viable option and is not an error. Field names follow the
// outbound wire contract.
type SelectionResult struct {
	CheapestOpen        *Quote `json:"cheapest_delivery_option"`
	AlternativeCheapest *Quote `json:"alternative_cheapest_option"`
	FastestOpen         *Quote `json:"fastest_delivery_option"`
	AlternativeFastest  *Quote `json:"alternative_fastest_option"`
}
