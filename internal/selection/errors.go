package selection

import (
	"errors"
	"fmt"
)

// ErrNoPharmacies is returned when the inventory search yields no candidate
// pharmacies for the requested items.
var ErrNoPharmacies = errors.New("no pharmacies found for the requested items")

// ErrInvalidRequest is returned when the selection request is malformed.
// The request is not processed.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

// ContractError reports an upstream response that violates the expected
// shape. There is no partial data to work from, so the whole request fails.
type ContractError struct {
	Service string // "search" or "pricing"
	Reason  string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s service contract violation: %s", e.Service, e.Reason)
}

// PricingError reports a delivery pricing failure for a single pharmacy.
// Unless strict pricing is enabled it is localized: the pharmacy contributes
// no quotes and the batch continues.
type PricingError struct {
	SourceCode string
	StatusCode int    // HTTP status from the pricing service, 0 on transport failure
	Status     string // application-level status field, if any
	Err        error
}

func (e *PricingError) Error() string {
	msg := fmt.Sprintf("delivery pricing failed for %s", e.SourceCode)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Status != "" {
		msg += fmt.Sprintf(" (status %q)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PricingError) Unwrap() error {
	return e.Err
}
