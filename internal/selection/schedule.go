package selection

import (
	"time"

	"github.com/dostavka/selection-service/internal/catalog"
)

// OpenStatus classifies a pharmacy at a fixed evaluation instant.
type OpenStatus int

const (
	StatusClosed OpenStatus = iota
	StatusOpenClosingSoon
	StatusOpenStable
)

// String returns the string representation of the status.
func (s OpenStatus) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpenClosingSoon:
		return "open_closing_soon"
	case StatusOpenStable:
		return "open_stable"
	default:
		return "unknown"
	}
}

// IsOpen reports whether the status counts as open for quote selection.
func (s OpenStatus) IsOpen() bool {
	return s == StatusOpenStable || s == StatusOpenClosingSoon
}

// AroundTheClock is the opening-hours sentinel for pharmacies that never
// close. The upstream emits the Russian label; "24/7" is accepted as an
// alias.
const AroundTheClock = "Круглосуточно"

const scheduleLayout = "2006-01-02T15:04:05Z"

// StatusEvaluator classifies pharmacies against their daily schedule.
// All comparisons happen in the business timezone against one frozen
// instant, so every quote in a resolution is judged consistently.
type StatusEvaluator struct {
	loc    *time.Location
	window time.Duration
}

// NewStatusEvaluator builds an evaluator for the given IANA timezone and
// closing-soon window.
func NewStatusEvaluator(timezone string, window time.Duration) (*StatusEvaluator, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &StatusEvaluator{loc: loc, window: window}, nil
}

// Evaluate returns the pharmacy's status at the instant now.
// A 24-hour sentinel pharmacy is always OPEN_STABLE regardless of its
// timestamps. A timestamp that fails to parse yields CLOSED: an uncertain
// pharmacy is never recommended as open.
func (e *StatusEvaluator) Evaluate(src catalog.PharmacySource, now time.Time) OpenStatus {
	if src.OpeningHours == AroundTheClock || src.OpeningHours == "24/7" {
		return StatusOpenStable
	}

	opens, err := time.Parse(scheduleLayout, src.OpensAt)
	if err != nil {
		return StatusClosed
	}
	closes, err := time.Parse(scheduleLayout, src.ClosesAt)
	if err != nil {
		return StatusClosed
	}

	local := now.In(e.loc)
	opensLocal := opens.In(e.loc)
	closesLocal := closes.In(e.loc)

	switch {
	case local.Before(opensLocal):
		return StatusClosed
	case !closesLocal.After(local):
		return StatusClosed
	case closesLocal.Sub(local) <= e.window:
		return StatusOpenClosingSoon
	default:
		return StatusOpenStable
	}
}
