package services

import (
	"errors"
	"testing"
)

func TestComputeShares(t *testing.T) {
	cases := []struct {
		name      string
		amount    int64
		pct       int
		wantTech  int64
		wantAdmin int64
	}{
		{"standard thirty percent", 1000, 30, 700, 300},
		{"zero commission", 1000, 0, 1000, 0},
		{"full commission", 1000, 100, 0, 1000},
		{"admin share rounds half up", 5, 50, 2, 3},
		{"fraction below half rounds down", 999, 30, 699, 300},
		{"amount too small for commission", 1, 30, 1, 0},
		{"zero amount", 0, 30, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := ComputeShares(tc.amount, tc.pct)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if shares.TechnicianShare != tc.wantTech {
				t.Fatalf("technician share = %d, want %d", shares.TechnicianShare, tc.wantTech)
			}
			if shares.AdminShare != tc.wantAdmin {
				t.Fatalf("admin share = %d, want %d", shares.AdminShare, tc.wantAdmin)
			}
		})
	}
}

func TestComputeSharesNegativeAmount(t *testing.T) {
	_, err := ComputeShares(-1, 30)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

// Both sides of the split must always sum back to the original amount; no
// currency unit may be lost or duplicated by rounding.
func TestComputeSharesConserveAmount(t *testing.T) {
	amounts := []int64{0, 1, 7, 99, 100, 101, 999, 12345, 1000000}
	for _, amount := range amounts {
		for pct := 0; pct <= 100; pct += 7 {
			shares, err := ComputeShares(amount, pct)
			if err != nil {
				t.Fatalf("ComputeShares(%d, %d): %v", amount, pct, err)
			}
			if shares.TechnicianShare+shares.AdminShare != amount {
				t.Fatalf("ComputeShares(%d, %d): shares %d + %d do not sum to amount",
					amount, pct, shares.TechnicianShare, shares.AdminShare)
			}
			if shares.TechnicianShare < 0 || shares.AdminShare < 0 {
				t.Fatalf("ComputeShares(%d, %d): negative share", amount, pct)
			}
		}
	}
}
