package types

import "strings"

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
)

// NormalizeEmail is the canonical form used for membership and ownership keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
