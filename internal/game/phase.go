package game

import "time"

type Phase string

const (
	PhaseBetting  Phase = "BETTING"
	PhaseRunning  Phase = "RUNNING"
	PhaseFinished Phase = "FINISHED"
)

// BettingEnd and RoundEnd derive the phase boundaries from the round start.
// No stored phase field is authoritative; phase is always a function of time.
func BettingEnd(start time.Time) time.Time {
	return start.Add(BETTING_DURATION)
}

func RoundEnd(start time.Time) time.Time {
	return BettingEnd(start).Add(RUNNING_DURATION)
}

// PhaseAt computes the phase at the given instant and how long it still has
// to run. A bet at exactly the betting boundary is still accepted; one
// millisecond later it is not.
func PhaseAt(now, start time.Time) (Phase, time.Duration) {
	bettingEnd := BettingEnd(start)
	end := RoundEnd(start)

	switch {
	case !now.After(bettingEnd):
		return PhaseBetting, bettingEnd.Sub(now)
	case now.Before(end):
		return PhaseRunning, end.Sub(now)
	default:
		return PhaseFinished, 0
	}
}
