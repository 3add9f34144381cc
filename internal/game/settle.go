package game

import (
	"math"

	"dindin/internal/store"
)

// IsWin decides a bet against the raw result. The displayed value is the
// complement of the internal one, which is why ABOVE wins on a low raw
// result.
func IsWin(betType string, result float64) bool {
	return (betType == store.BetAbove && result < 50) ||
		(betType == store.BetBelow && result >= 50)
}

// Payout is the amount credited back for a bet: stake times the fixed
// multiplier on a win, nothing on a loss.
func Payout(betType string, amount, result float64) float64 {
	if IsWin(betType, result) {
		return amount * WIN_MULTIPLIER
	}
	return 0
}

// DisplayResult is the value shown to players: round(100 - result).
func DisplayResult(result float64) int {
	return int(math.Round(100 - result))
}

// WinType names the side that won the round.
func WinType(result float64) string {
	if result < 50 {
		return store.BetAbove
	}
	return store.BetBelow
}
