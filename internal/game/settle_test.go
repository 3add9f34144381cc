package game

import (
	"testing"

	"dindin/internal/store"
)

func TestIsWin(t *testing.T) {
	tests := []struct {
		name    string
		betType string
		result  float64
		want    bool
	}{
		{"above wins on low result", store.BetAbove, 30.0, true},
		{"above loses on high result", store.BetAbove, 70.0, false},
		{"above loses at exactly 50", store.BetAbove, 50.0, false},
		{"above wins just under 50", store.BetAbove, 49.99, true},
		{"below wins at exactly 50", store.BetBelow, 50.0, true},
		{"below wins on high result", store.BetBelow, 88.5, true},
		{"below loses on low result", store.BetBelow, 12.0, false},
		{"unknown type never wins", "SIDEWAYS", 30.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWin(tt.betType, tt.result); got != tt.want {
				t.Errorf("IsWin(%q, %v) = %v, want %v", tt.betType, tt.result, got, tt.want)
			}
		})
	}
}

func TestPayout(t *testing.T) {
	// A 20.00 ABOVE bet on a raw result of 30 pays 20 * 1.8 = 36.
	if got := Payout(store.BetAbove, 20.0, 30.0); got != 36.0 {
		t.Errorf("winning payout = %v, want 36.0", got)
	}
	if got := Payout(store.BetBelow, 20.0, 30.0); got != 0 {
		t.Errorf("losing payout = %v, want 0", got)
	}
}

func TestDisplayResult(t *testing.T) {
	tests := []struct {
		result float64
		want   int
	}{
		{30.0, 70},
		{29.5, 71}, // rounds half up
		{50.0, 50},
		{0.0, 100},
		{100.0, 0},
		{99.99, 0},
	}
	for _, tt := range tests {
		if got := DisplayResult(tt.result); got != tt.want {
			t.Errorf("DisplayResult(%v) = %d, want %d", tt.result, got, tt.want)
		}
	}
}

func TestWinType(t *testing.T) {
	if got := WinType(10.0); got != store.BetAbove {
		t.Errorf("WinType(10) = %s, want ABOVE", got)
	}
	if got := WinType(50.0); got != store.BetBelow {
		t.Errorf("WinType(50) = %s, want BELOW", got)
	}

	// WinType and IsWin must agree on every result.
	for _, r := range []float64{0, 12.34, 49.99, 50, 50.01, 77.7, 100} {
		if !IsWin(WinType(r), r) {
			t.Errorf("IsWin(WinType(%v), %v) = false", r, r)
		}
	}
}
