package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"splitkar/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pcts(pairs ...any) map[uint]decimal.Decimal {
	m := make(map[uint]decimal.Decimal)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(uint)] = dec(pairs[i+1].(string))
	}
	return m
}

func TestComputeSharesEqual(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []uint
		policy       string
		want         map[uint]string
		sumEquals    string // non-empty: require exact sum
	}{
		{
			name:         "two way split",
			total:        "100.00",
			participants: []uint{1, 2},
			policy:       domain.RoundingTolerate,
			want:         map[uint]string{1: "50.00", 2: "50.00"},
			sumEquals:    "100.00",
		},
		{
			name:         "three way split tolerates drift",
			total:        "100.00",
			participants: []uint{1, 2, 3},
			policy:       domain.RoundingTolerate,
			want:         map[uint]string{1: "33.33", 2: "33.33", 3: "33.33"},
		},
		{
			name:         "three way split absorb gives remainder to last",
			total:        "100.00",
			participants: []uint{3, 1, 2},
			policy:       domain.RoundingAbsorb,
			want:         map[uint]string{1: "33.33", 2: "33.33", 3: "33.34"},
			sumEquals:    "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ComputeShares(dec(tt.total), domain.SplitTypeEqual, tt.participants, nil, tt.policy)
			if err != nil {
				t.Fatalf("ComputeShares: %v", err)
			}
			sum := decimal.Zero
			for id, want := range tt.want {
				got := shares[id].AmountOwed
				if !got.Equal(dec(want)) {
					t.Errorf("participant %d owed %s, want %s", id, got, want)
				}
				sum = sum.Add(got)
			}
			if tt.sumEquals != "" && !sum.Equal(dec(tt.sumEquals)) {
				t.Errorf("shares sum to %s, want %s", sum, tt.sumEquals)
			}
			// In all policies the drift stays within tolerance per participant.
			drift := sum.Sub(dec(tt.total)).Abs()
			limit := domain.Tolerance.Mul(decimal.NewFromInt(int64(len(tt.participants))))
			if drift.GreaterThan(limit) {
				t.Errorf("drift %s exceeds %s", drift, limit)
			}
		})
	}
}

func TestComputeSharesPercentage(t *testing.T) {
	shares, err := ComputeShares(dec("200.00"), domain.SplitTypePercentage, []uint{1, 2}, pcts(uint(1), "60", uint(2), "40"), domain.RoundingTolerate)
	if err != nil {
		t.Fatalf("ComputeShares: %v", err)
	}
	if got := shares[1].AmountOwed; !got.Equal(dec("120.00")) {
		t.Errorf("user 1 owed %s, want 120.00", got)
	}
	if got := shares[2].AmountOwed; !got.Equal(dec("80.00")) {
		t.Errorf("user 2 owed %s, want 80.00", got)
	}
	if shares[1].Percentage == nil || !shares[1].Percentage.Equal(dec("60")) {
		t.Errorf("user 1 percentage not preserved")
	}
}

func TestComputeSharesPercentageRounding(t *testing.T) {
	// 33.33/33.33/33.34 over 99.99 exercises half-even quantization.
	shares, err := ComputeShares(dec("99.99"), domain.SplitTypePercentage, []uint{1, 2, 3},
		pcts(uint(1), "33.33", uint(2), "33.33", uint(3), "33.34"), domain.RoundingTolerate)
	if err != nil {
		t.Fatalf("ComputeShares: %v", err)
	}
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.AmountOwed)
	}
	if sum.Sub(dec("99.99")).Abs().GreaterThan(domain.Tolerance) {
		t.Errorf("percentage shares sum %s drifts beyond tolerance from 99.99", sum)
	}
}

func TestComputeSharesValidation(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		splitType    string
		participants []uint
		percentages  map[uint]decimal.Decimal
	}{
		{"zero total", "0", domain.SplitTypeEqual, []uint{1, 2}, nil},
		{"negative total", "-5.00", domain.SplitTypeEqual, []uint{1, 2}, nil},
		{"no participants", "10.00", domain.SplitTypeEqual, nil, nil},
		{"duplicate participant", "10.00", domain.SplitTypeEqual, []uint{1, 1}, nil},
		{"unknown split type", "10.00", "shares", []uint{1, 2}, nil},
		{"percentage missing entry", "10.00", domain.SplitTypePercentage, []uint{1, 2}, pcts(uint(1), "100")},
		{"percentage extra entry", "10.00", domain.SplitTypePercentage, []uint{1}, pcts(uint(1), "50", uint(2), "50")},
		{"percentages not 100", "10.00", domain.SplitTypePercentage, []uint{1, 2}, pcts(uint(1), "60", uint(2), "50")},
		{"negative percentage", "10.00", domain.SplitTypePercentage, []uint{1, 2}, pcts(uint(1), "110", uint(2), "-10")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeShares(dec(tt.total), tt.splitType, tt.participants, tt.percentages, domain.RoundingTolerate)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !domain.IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}
