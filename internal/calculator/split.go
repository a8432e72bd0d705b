// Package calculator turns a total amount and a split rule into per-user
// owed amounts. It is pure: no storage, no side effects.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"splitkar/internal/domain"
)

// Share is one participant's computed portion of an expense.
type Share struct {
	AmountOwed decimal.Decimal
	Percentage *decimal.Decimal // set only for percentage splits
}

// ComputeShares divides total among participants according to splitType.
//
// For equal splits the rounding policy decides what happens to the remainder
// cents: domain.RoundingTolerate gives every participant total/n rounded to
// two decimals (the sum may drift from total within tolerance), while
// domain.RoundingAbsorb assigns the remainder to the highest-id participant
// so the shares sum to total exactly.
//
// For percentage splits the percentages map must cover exactly the
// participant set and sum to 100 within tolerance; each owed amount is
// total×pct/100 rounded half-even to two decimals.
func ComputeShares(total decimal.Decimal, splitType string, participantIDs []uint, percentages map[uint]decimal.Decimal, roundingPolicy string) (map[uint]Share, error) {
	if !total.IsPositive() {
		return nil, domain.Validationf("total amount must be positive")
	}
	if len(participantIDs) == 0 {
		return nil, domain.Validationf("participant list cannot be empty")
	}
	seen := make(map[uint]bool, len(participantIDs))
	for _, id := range participantIDs {
		if seen[id] {
			return nil, domain.Validationf("duplicate participant %d", id)
		}
		seen[id] = true
	}

	switch splitType {
	case domain.SplitTypeEqual:
		return equalShares(total, participantIDs, roundingPolicy), nil
	case domain.SplitTypePercentage:
		return percentageShares(total, participantIDs, percentages)
	}
	return nil, domain.Validationf("unsupported split type %q", splitType)
}

func equalShares(total decimal.Decimal, participantIDs []uint, roundingPolicy string) map[uint]Share {
	n := decimal.NewFromInt(int64(len(participantIDs)))
	perHead := total.DivRound(n, 2)

	shares := make(map[uint]Share, len(participantIDs))
	for _, id := range participantIDs {
		shares[id] = Share{AmountOwed: perHead}
	}

	if roundingPolicy == domain.RoundingAbsorb && len(participantIDs) > 1 {
		ordered := append([]uint(nil), participantIDs...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
		last := ordered[len(ordered)-1]
		others := perHead.Mul(decimal.NewFromInt(int64(len(participantIDs) - 1)))
		shares[last] = Share{AmountOwed: total.Sub(others)}
	}
	return shares
}

func percentageShares(total decimal.Decimal, participantIDs []uint, percentages map[uint]decimal.Decimal) (map[uint]Share, error) {
	if len(percentages) == 0 {
		return nil, domain.Validationf("percentage split requires a percentage per participant")
	}
	sum := decimal.Zero
	for _, id := range participantIDs {
		pct, ok := percentages[id]
		if !ok {
			return nil, domain.Validationf("missing percentage for participant %d", id)
		}
		if pct.IsNegative() {
			return nil, domain.Validationf("percentage for participant %d cannot be negative", id)
		}
		sum = sum.Add(pct)
	}
	if len(percentages) != len(participantIDs) {
		return nil, domain.Validationf("percentages given for users outside the participant set")
	}
	if sum.Sub(domain.Hundred).Abs().GreaterThan(domain.Tolerance) {
		return nil, domain.Validationf("percentages must sum to 100, got %s", sum)
	}

	shares := make(map[uint]Share, len(participantIDs))
	for _, id := range participantIDs {
		pct := percentages[id]
		owed := total.Mul(pct).Div(domain.Hundred).RoundBank(2)
		p := pct
		shares[id] = Share{AmountOwed: owed, Percentage: &p}
	}
	return shares, nil
}
