package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const betColumns = `id, user_id, round_id, amount, type, status, result, win_amount, created_at, completed_at`

func scanBet(row pgx.Row) (*Bet, error) {
	var b Bet
	err := row.Scan(&b.ID, &b.UserID, &b.RoundID, &b.Amount, &b.Type, &b.Status,
		&b.Result, &b.WinAmount, &b.CreatedAt, &b.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBetAndDebit creates the bet and debits the stake in one transaction.
// The debit is conditional (balance >= amount) and the bets table carries a
// UNIQUE(user_id, round_id) constraint, so concurrent requests cannot
// overdraw nor double-bet: one of them fails here instead of racing.
func (s *Store) InsertBetAndDebit(ctx context.Context, userID, roundID string, amount float64, betType string) (*Bet, float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var newBalance float64
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1
		RETURNING balance`,
		amount, userID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrInsufficientBalance
	}
	if err != nil {
		return nil, 0, err
	}

	betID := uuid.New().String()
	row := tx.QueryRow(ctx, `
		INSERT INTO bets (id, user_id, round_id, amount, type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+betColumns,
		betID, userID, roundID, amount, betType, BetPending)

	bet, err := scanBet(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, 0, ErrDuplicateBet
		}
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return bet, newBalance, nil
}

// HasBetForRound is the friendly pre-check; the unique constraint remains the
// real guard.
func (s *Store) HasBetForRound(ctx context.Context, userID, roundID string) (*Bet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+betColumns+` FROM bets WHERE user_id = $1 AND round_id = $2`,
		userID, roundID)
	bet, err := scanBet(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return bet, err
}

// DailyBetTotal sums the user's stakes created since the given instant
// (local midnight for the daily limit).
func (s *Store) DailyBetTotal(ctx context.Context, userID string, since time.Time) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(sum(amount), 0) FROM bets
		WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&total)
	return total, err
}

func (s *Store) PendingBetsForRound(ctx context.Context, roundID string) ([]Bet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+betColumns+` FROM bets WHERE round_id = $1 AND status = $2`,
		roundID, BetPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, *b)
	}
	return bets, rows.Err()
}

// SettleBet finalizes one bet and credits any payout in the same transaction.
// The credit clamps at zero so a concurrent debit can never leave a negative
// balance. Returns the user's balance after settlement.
func (s *Store) SettleBet(ctx context.Context, betID string, result, winAmount float64) (float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `
		UPDATE bets
		SET status = $1, result = $2, win_amount = $3, completed_at = now()
		WHERE id = $4 AND status = $5
		RETURNING user_id`,
		BetCompleted, result, winAmount, betID, BetPending).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	var balance float64
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET balance = GREATEST(0, balance + $1), updated_at = now()
		WHERE id = $2
		RETURNING balance`,
		winAmount, userID).Scan(&balance)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// RecentBets returns the caller's latest bets with their rounds.
func (s *Store) RecentBets(ctx context.Context, userID string, limit int) ([]BetWithRound, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.user_id, b.round_id, b.amount, b.type, b.status, b.result, b.win_amount, b.created_at, b.completed_at,
		       r.id, r.start_time, r.end_time, r.status, r.result, r.house_profit, r.server_seed, r.client_seed, r.nonce, r.commitment, r.created_at
		FROM bets b
		JOIN rounds r ON r.id = b.round_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BetWithRound
	for rows.Next() {
		var bwr BetWithRound
		err := rows.Scan(
			&bwr.ID, &bwr.UserID, &bwr.RoundID, &bwr.Amount, &bwr.Type, &bwr.Status,
			&bwr.Result, &bwr.WinAmount, &bwr.CreatedAt, &bwr.CompletedAt,
			&bwr.Round.ID, &bwr.Round.StartTime, &bwr.Round.EndTime, &bwr.Round.Status,
			&bwr.Round.Result, &bwr.Round.HouseProfit, &bwr.Round.ServerSeed,
			&bwr.Round.ClientSeed, &bwr.Round.Nonce, &bwr.Round.Commitment, &bwr.Round.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, bwr)
	}
	return out, rows.Err()
}

// StakeTotalsForRound reports how much is staked on each side of the open
// round; the engine uses it when applying the house edge.
func (s *Store) StakeTotalsForRound(ctx context.Context, roundID string) (above, below float64, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(sum(amount) FILTER (WHERE type = $2), 0),
			COALESCE(sum(amount) FILTER (WHERE type = $3), 0)
		FROM bets WHERE round_id = $1`,
		roundID, BetAbove, BetBelow).Scan(&above, &below)
	return above, below, err
}
