// Package service implements the ticketing core's use cases: the flash-sale
// registry, the checkout gate, the order issuer and the redemption
// validator. Services depend on small interfaces rather than concrete
// repositories so the concurrency properties can be tested against
// in-memory fakes.
package service

import (
	"errors"
	"fmt"
)

// ErrCheckoutDisabled is returned when the checkout feature flag is off.
var ErrCheckoutDisabled = errors.New("checkout is currently disabled")

// ErrFlashSalesDisabled is returned by registry mutations when the
// flash-sale feature flag is off.
var ErrFlashSalesDisabled = errors.New("flash sales are currently disabled")

// ErrSessionNotPaid is returned when issuance is requested for a session
// the gateway does not report as paid. Expired or abandoned sessions must
// never mint tickets.
var ErrSessionNotPaid = errors.New("payment session is not paid")

// ValidationError is a user-correctable request problem (malformed basket,
// bad dates, unknown target tier). Handlers map it to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AvailabilityError reports that a basket line asked for more seats than a
// tier currently has. It carries the tier name and the remaining count so
// the storefront can tell the customer what to adjust.
type AvailabilityError struct {
	TierName  string
	Requested int
	Remaining int
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("tier %q has %d seats remaining, %d requested", e.TierName, e.Remaining, e.Requested)
}
