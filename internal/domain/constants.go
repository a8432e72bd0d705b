package domain

import "github.com/shopspring/decimal"

const (
	SplitTypeEqual      = "equal"
	SplitTypePercentage = "percentage"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
)

const (
	SettlementMethodCash         = "cash"
	SettlementMethodUPI          = "upi"
	SettlementMethodBankTransfer = "bank_transfer"
	SettlementMethodOther        = "other"
)

// Equal-split rounding policies
const (
	// RoundingTolerate divides total by n for every participant; the sum may
	// drift from the total by a sub-cent epsilon per participant.
	RoundingTolerate = "tolerate"
	// RoundingAbsorb makes the last participant absorb the remainder so the
	// shares always sum to the total exactly.
	RoundingAbsorb = "absorb"
)

// ValidSettlementMethod reports whether m is one of the supported payment
// methods.
func ValidSettlementMethod(m string) bool {
	switch m {
	case SettlementMethodCash, SettlementMethodUPI, SettlementMethodBankTransfer, SettlementMethodOther:
		return true
	}
	return false
}

const DefaultCurrency = "INR"

// Tolerance is the amount below which two monetary values are considered
// equal (1 paisa). Shares and balances within Tolerance of zero are settled.
var Tolerance = decimal.NewFromFloat(0.01)

// Hundred is the percentage denominator.
var Hundred = decimal.NewFromInt(100)
