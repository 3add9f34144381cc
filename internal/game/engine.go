package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dindin/internal/metrics"
	"dindin/internal/store"
)

// Ledger is the slice of the store the engine needs. *store.Store satisfies
// it.
type Ledger interface {
	CreateRound(ctx context.Context, r *store.Round) error
	SetRoundStatus(ctx context.Context, id, status string) error
	FinishRound(ctx context.Context, id string, result float64) error
	PendingBetsForRound(ctx context.Context, roundID string) ([]store.Bet, error)
	SettleBet(ctx context.Context, betID string, result, winAmount float64) (float64, error)
	StakeTotalsForRound(ctx context.Context, roundID string) (above, below float64, err error)
	AddLoyaltyPoints(ctx context.Context, userID string, points int64) (int64, int, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
	DailyBetLimit(ctx context.Context, userID string, defaultLimit float64) (float64, error)
	DailyBetTotal(ctx context.Context, userID string, since time.Time) (float64, error)
	HasBetForRound(ctx context.Context, userID, roundID string) (*store.Bet, error)
	InsertBetAndDebit(ctx context.Context, userID, roundID string, amount float64, betType string) (*store.Bet, float64, error)
}

// SnapshotCache persists the current round snapshot for reconnecting clients.
type SnapshotCache interface {
	StoreRoundSnapshot(ctx context.Context, snapshot any) error
}

type Config struct {
	BettingDuration time.Duration
	RunningDuration time.Duration
	RoundPause      time.Duration
	HouseProfit     float64
}

func DefaultConfig() Config {
	return Config{
		BettingDuration: BETTING_DURATION,
		RunningDuration: RUNNING_DURATION,
		RoundPause:      ROUND_PAUSE,
		HouseProfit:     1.0,
	}
}

type roundState struct {
	round store.Round
	line  float64
}

// Engine runs the round lifecycle in a single goroutine and owns the one
// authoritative current round.
type Engine struct {
	hub       *Hub
	ledger    Ledger
	snapshots SnapshotCache
	log       *zap.Logger
	cfg       Config

	mu          sync.RWMutex
	current     *roundState
	houseProfit float64
	nonce       int64

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewEngine(hub *Hub, ledger Ledger, snapshots SnapshotCache, log *zap.Logger, cfg Config) *Engine {
	if cfg.BettingDuration <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{
		hub:         hub,
		ledger:      ledger,
		snapshots:   snapshots,
		log:         log,
		cfg:         cfg,
		houseProfit: cfg.HouseProfit,
		stopChan:    make(chan struct{}),
	}
}

func (e *Engine) Start() {
	go e.loop()
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
}

// HouseProfit is the edge applied to upcoming rounds, settable at runtime by
// an admin.
func (e *Engine) HouseProfit() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.houseProfit
}

func (e *Engine) SetHouseProfit(pct float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.houseProfit = pct
}

// CurrentRound returns a copy of the round in progress, or nil between
// rounds.
func (e *Engine) CurrentRound() *store.Round {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil
	}
	round := e.current.round
	return &round
}

// Snapshot builds the state pushed to (re)connecting clients. Phase is
// derived from the clock, never from the stored status.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil
	}

	phase, remaining := PhaseAt(time.Now(), e.current.round.StartTime)
	return &Snapshot{
		RoundID:      e.current.round.ID,
		Phase:        phase,
		StartTime:    e.current.round.StartTime,
		TimeLeftMs:   remaining.Milliseconds(),
		LinePosition: e.current.line,
		Commitment:   e.current.round.Commitment,
		PlayerCount:  e.hub.GetClientCount(),
	}
}

func (e *Engine) loop() {
	for {
		select {
		case <-e.stopChan:
			e.log.Info("game loop stopped")
			return
		default:
			if err := e.runRound(); err != nil {
				e.log.Error("round failed", zap.Error(err))
			}
		}

		select {
		case <-e.stopChan:
			e.log.Info("game loop stopped")
			return
		case <-time.After(e.cfg.RoundPause):
		}
	}
}

func (e *Engine) runRound() error {
	ctx := context.Background()

	e.mu.Lock()
	e.nonce++
	nonce := e.nonce
	houseProfit := e.houseProfit
	e.mu.Unlock()

	serverSeed := GenerateSeed()
	clientSeed := GenerateSeed()
	commitment := HashCommitment(serverSeed)

	start := time.Now()
	round := store.Round{
		ID:          uuid.New().String(),
		StartTime:   start,
		EndTime:     start.Add(e.cfg.BettingDuration + e.cfg.RunningDuration),
		Status:      store.RoundBetting,
		HouseProfit: houseProfit,
		ServerSeed:  serverSeed,
		ClientSeed:  clientSeed,
		Nonce:       nonce,
		Commitment:  commitment,
	}
	if err := e.ledger.CreateRound(ctx, &round); err != nil {
		return err
	}

	e.mu.Lock()
	e.current = &roundState{round: round, line: 50}
	e.mu.Unlock()
	e.publishSnapshot(ctx)

	e.log.Info("round open",
		zap.String("round", round.ID),
		zap.String("commitment", commitment[:16]+"..."))

	e.hub.Broadcast(WSMessage{Type: EventBettingStart, Data: BettingStartMessage{
		RoundID:    round.ID,
		StartTime:  start,
		BettingMs:  e.cfg.BettingDuration.Milliseconds(),
		Commitment: commitment,
	}})

	if !e.waitBetting(start) {
		return nil // stopped
	}

	if err := e.ledger.SetRoundStatus(ctx, round.ID, store.RoundRunning); err != nil {
		e.log.Error("round status update failed", zap.Error(err))
	}
	e.hub.Broadcast(WSMessage{Type: EventRoundStart, Data: RoundStartMessage{
		RoundID:   round.ID,
		RunningMs: e.cfg.RunningDuration.Milliseconds(),
	}})

	above, below, err := e.ledger.StakeTotalsForRound(ctx, round.ID)
	if err != nil {
		e.log.Error("stake totals failed", zap.Error(err))
	}
	result := DrawResult(serverSeed, clientSeed, nonce, houseProfit, above, below)

	if !e.runLine(round, result) {
		return nil // stopped
	}

	if err := e.ledger.FinishRound(ctx, round.ID, result); err != nil {
		return err
	}
	e.settle(ctx, round, result)

	e.hub.Broadcast(WSMessage{Type: EventRoundEnd, Data: RoundEndMessage{
		RoundID:       round.ID,
		Result:        result,
		DisplayResult: DisplayResult(result),
		WinType:       WinType(result),
		Multiplier:    WIN_MULTIPLIER,
		ServerSeed:    serverSeed,
		Nonce:         nonce,
	}})
	e.publishSnapshot(ctx)
	metrics.RoundsTotal.Inc()

	e.log.Info("round finished",
		zap.String("round", round.ID),
		zap.Float64("result", result),
		zap.Int("display", DisplayResult(result)))
	return nil
}

// waitBetting runs the betting window, broadcasting the countdown once a
// second. Returns false when the engine is stopping.
func (e *Engine) waitBetting(start time.Time) bool {
	timer := time.NewTimer(e.cfg.BettingDuration)
	defer timer.Stop()
	ticker := time.NewTicker(TIME_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return true
		case <-ticker.C:
			_, remaining := PhaseAt(time.Now(), start)
			e.hub.Broadcast(WSMessage{Type: EventTimeUpdate, Data: remaining.Milliseconds()})
		case <-e.stopChan:
			return false
		}
	}
}

// runLine animates the indicator for the running phase. Returns false when
// the engine is stopping.
func (e *Engine) runLine(round store.Round, result float64) bool {
	walker := newLineWalker(round.ServerSeed, float64(DisplayResult(result)))

	timer := time.NewTimer(e.cfg.RunningDuration)
	defer timer.Stop()
	tick := time.NewTicker(TICK_INTERVAL)
	defer tick.Stop()
	timeTick := time.NewTicker(TIME_INTERVAL)
	defer timeTick.Stop()

	runStart := time.Now()
	for {
		select {
		case <-timer.C:
			return true
		case <-tick.C:
			progress := float64(time.Since(runStart)) / float64(e.cfg.RunningDuration)
			line := walker.at(progress)

			e.mu.Lock()
			if e.current != nil {
				e.current.line = line
			}
			e.mu.Unlock()

			e.hub.Broadcast(WSMessage{Type: EventLineUpdate, Data: line})
		case <-timeTick.C:
			_, remaining := PhaseAt(time.Now(), round.StartTime)
			e.hub.Broadcast(WSMessage{Type: EventTimeUpdate, Data: remaining.Milliseconds()})
		case <-e.stopChan:
			return false
		}
	}
}

// settle finalizes every pending bet of the round: marks it, credits the
// payout, accrues loyalty points and pushes the fresh balance to the player.
func (e *Engine) settle(ctx context.Context, round store.Round, result float64) {
	bets, err := e.ledger.PendingBetsForRound(ctx, round.ID)
	if err != nil {
		e.log.Error("loading pending bets failed", zap.String("round", round.ID), zap.Error(err))
		return
	}

	for _, bet := range bets {
		payout := Payout(bet.Type, bet.Amount, result)
		balance, err := e.ledger.SettleBet(ctx, bet.ID, result, payout)
		if err != nil {
			e.log.Error("settling bet failed", zap.String("bet", bet.ID), zap.Error(err))
			continue
		}

		if _, _, err := e.ledger.AddLoyaltyPoints(ctx, bet.UserID, int64(bet.Amount)*POINTS_PER_UNIT); err != nil {
			e.log.Error("loyalty accrual failed", zap.String("user", bet.UserID), zap.Error(err))
		}

		if payout > 0 {
			metrics.PayoutTotal.Add(payout)
		}

		e.hub.SendToUser(bet.UserID, WSMessage{Type: EventBalance, Data: BalanceMessage{
			Balance:   balance,
			WinAmount: payout,
			RoundID:   round.ID,
		}})
	}

	e.log.Info("round settled", zap.String("round", round.ID), zap.Int("bets", len(bets)))
}

func (e *Engine) publishSnapshot(ctx context.Context) {
	if e.snapshots == nil {
		return
	}
	if snap := e.Snapshot(); snap != nil {
		if err := e.snapshots.StoreRoundSnapshot(ctx, snap); err != nil {
			e.log.Warn("snapshot store failed", zap.Error(err))
		}
	}
}
