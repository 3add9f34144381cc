package game

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dindin/internal/metrics"
	"dindin/internal/store"
)

// PlaceBet validates and commits a bet on the current round. The checks run
// in a fixed order so the client always learns about the cheapest failure
// first; the debit and the insert happen in one transaction at the end, so a
// passed precheck can still lose the race and come back as a Rejection.
func (e *Engine) PlaceBet(ctx context.Context, userID, roundID string, amount float64, betType string) (*store.Bet, float64, error) {
	if betType != store.BetAbove && betType != store.BetBelow {
		metrics.BetRejections.WithLabelValues("bad_type").Inc()
		return nil, 0, reject("Tipo de aposta inválido")
	}
	if amount <= 0 {
		metrics.BetRejections.WithLabelValues("bad_amount").Inc()
		return nil, 0, reject("Valor de aposta inválido")
	}
	if amount < MIN_BET_AMOUNT {
		metrics.BetRejections.WithLabelValues("below_min").Inc()
		return nil, 0, reject("Valor abaixo do mínimo permitido").with("minBet", MIN_BET_AMOUNT)
	}
	if amount > MAX_BET_AMOUNT {
		metrics.BetRejections.WithLabelValues("above_max").Inc()
		return nil, 0, reject("Valor acima do máximo permitido").with("maxBet", MAX_BET_AMOUNT)
	}

	user, err := e.ledger.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.BetRejections.WithLabelValues("no_user").Inc()
			return nil, 0, rejectNotFound("Usuário não encontrado")
		}
		return nil, 0, err
	}
	if user.Balance < amount {
		metrics.BetRejections.WithLabelValues("insufficient").Inc()
		return nil, 0, reject("Saldo insuficiente").with("currentBalance", user.Balance)
	}

	dailyLimit, err := e.ledger.DailyBetLimit(ctx, userID, DEFAULT_DAILY_BET_LIMIT)
	if err != nil {
		return nil, 0, err
	}
	wagered, err := e.ledger.DailyBetTotal(ctx, userID, startOfDay(time.Now()))
	if err != nil {
		return nil, 0, err
	}
	if wagered+amount > dailyLimit {
		metrics.BetRejections.WithLabelValues("daily_limit").Inc()
		return nil, 0, reject("Limite diário de apostas atingido").
			with("dailyLimit", dailyLimit).
			with("wageredToday", wagered)
	}

	current := e.CurrentRound()
	if current == nil {
		metrics.BetRejections.WithLabelValues("no_round").Inc()
		return nil, 0, rejectNotFound("Rodada não encontrada")
	}
	if roundID != "" && roundID != current.ID {
		metrics.BetRejections.WithLabelValues("stale_round").Inc()
		return nil, 0, rejectNotFound("Rodada não encontrada")
	}

	phase, _ := PhaseAt(time.Now(), current.StartTime)
	if phase != PhaseBetting {
		metrics.BetRejections.WithLabelValues("window_closed").Inc()
		return nil, 0, reject("Apostas encerradas para esta rodada")
	}

	if existing, err := e.ledger.HasBetForRound(ctx, userID, current.ID); err != nil {
		return nil, 0, err
	} else if existing != nil {
		metrics.BetRejections.WithLabelValues("duplicate").Inc()
		return nil, 0, reject("Você já apostou nesta rodada")
	}

	bet, balance, err := e.ledger.InsertBetAndDebit(ctx, userID, current.ID, amount, betType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			metrics.BetRejections.WithLabelValues("insufficient").Inc()
			return nil, 0, reject("Saldo insuficiente")
		case errors.Is(err, store.ErrDuplicateBet):
			metrics.BetRejections.WithLabelValues("duplicate").Inc()
			return nil, 0, reject("Você já apostou nesta rodada")
		}
		return nil, 0, err
	}

	metrics.BetsTotal.Inc()
	metrics.BetAmountTotal.Add(amount)

	e.hub.Broadcast(WSMessage{Type: EventNewBet, Data: NewBetMessage{
		BetID:  bet.ID,
		UserID: userID,
		Name:   user.Name,
		Amount: amount,
		Type:   betType,
	}})

	e.log.Info("bet placed",
		zap.String("user", userID),
		zap.String("round", current.ID),
		zap.Float64("amount", amount),
		zap.String("type", betType))

	return bet, balance, nil
}

// startOfDay returns local midnight, the boundary for the daily bet limit.
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
