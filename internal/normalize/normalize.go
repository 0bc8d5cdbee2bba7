// Package normalize turns inbound checkout events into delivery-ready checkouts.
package normalize

import (
	"errors"
	"strings"
	"unicode"

	"checkout-notifier/internal/model"
)

// DefaultDisplayName is used when the event carries no customer first name.
const DefaultDisplayName = "Customer"

// stripPrefix is the calling code removed from the front of a phone number.
// The provider account only delivers to Indian numbers, which it expects
// without the country code.
const stripPrefix = "91"

var (
	ErrMissingID          = errors.New("missing checkout id")
	ErrMissingPhone       = errors.New("missing phone number")
	ErrMissingCheckoutURL = errors.New("missing checkout URL")
)

// ValidationError reports which field category made an event unusable.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Phone keeps only the digits of raw and drops a single leading "91".
func Phone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	return strings.TrimPrefix(digits, stripPrefix)
}

// Event validates ev and returns its normalized form.
//
// The checkout id is kept verbatim. The top-level phone wins over the shipping address phone. A phone that
// holds no digits at all counts as missing.
func Event(ev model.CheckoutEvent) (model.Checkout, error) {
	id := string(ev.ID)
	if strings.TrimSpace(id) == "" {
		return model.Checkout{}, &ValidationError{Field: "id", Err: ErrMissingID}
	}

	raw := ev.Phone
	if strings.TrimSpace(raw) == "" && ev.ShippingAddress != nil {
		raw = ev.ShippingAddress.Phone
	}
	phone := Phone(raw)
	if phone == "" {
		return model.Checkout{}, &ValidationError{Field: "phone", Err: ErrMissingPhone}
	}

	if strings.TrimSpace(ev.AbandonedCheckoutURL) == "" {
		return model.Checkout{}, &ValidationError{Field: "abandoned_checkout_url", Err: ErrMissingCheckoutURL}
	}

	return model.Checkout{
		ID:          id,
		Phone:       phone,
		URL:         ev.AbandonedCheckoutURL,
		DisplayName: displayName(ev.Customer),
	}, nil
}

func displayName(c *model.Customer) string {
	if c == nil {
		return DefaultDisplayName
	}
	name := strings.TrimFunc(c.FirstName, unicode.IsSpace)
	if name == "" {
		return DefaultDisplayName
	}
	return name
}
