package game

import "time"

const (
	TICK_INTERVAL    = 100 * time.Millisecond
	TIME_INTERVAL    = 1 * time.Second
	BETTING_DURATION = 10 * time.Second
	RUNNING_DURATION = 30 * time.Second
	ROUND_PAUSE      = 3 * time.Second

	MIN_BET_AMOUNT          = 5.00
	MAX_BET_AMOUNT          = 1000.00
	DEFAULT_DAILY_BET_LIMIT = 5000.00
	WIN_MULTIPLIER          = 1.8

	MIN_RESULT = 0.00
	MAX_RESULT = 100.00

	// Loyalty points accrued per currency unit staked.
	POINTS_PER_UNIT = 1
)
