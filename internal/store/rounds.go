package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const roundColumns = `id, start_time, end_time, status, result, house_profit, server_seed, client_seed, nonce, commitment, created_at`

func scanRound(row pgx.Row) (*Round, error) {
	var r Round
	err := row.Scan(&r.ID, &r.StartTime, &r.EndTime, &r.Status, &r.Result,
		&r.HouseProfit, &r.ServerSeed, &r.ClientSeed, &r.Nonce, &r.Commitment, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateRound(ctx context.Context, r *Round) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rounds (id, start_time, end_time, status, house_profit, server_seed, client_seed, nonce, commitment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.StartTime, r.EndTime, r.Status, r.HouseProfit,
		r.ServerSeed, r.ClientSeed, r.Nonce, r.Commitment)
	return err
}

func (s *Store) GetRound(ctx context.Context, id string) (*Round, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
	return scanRound(row)
}

// CurrentRound is the single authoritative selection rule: the most recent
// round whose end time is still in the future.
func (s *Store) CurrentRound(ctx context.Context) (*Round, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE end_time > now()
		ORDER BY start_time DESC
		LIMIT 1`)
	return scanRound(row)
}

func (s *Store) SetRoundStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rounds SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FinishRound(ctx context.Context, id string, result float64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rounds SET status = $1, result = $2, end_time = LEAST(end_time, now())
		WHERE id = $3`,
		RoundFinished, result, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LastFinishedRounds returns the newest finished rounds with the caller's
// bet on each, if any.
func (s *Store) LastFinishedRounds(ctx context.Context, userID string, limit int) ([]FinishedRound, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.result, r.end_time, b.amount, b.type
		FROM rounds r
		LEFT JOIN bets b ON b.round_id = r.id AND b.user_id = $1
		WHERE r.status = $2 AND r.result IS NOT NULL
		ORDER BY r.end_time DESC
		LIMIT $3`, userID, RoundFinished, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FinishedRound
	for rows.Next() {
		var fr FinishedRound
		if err := rows.Scan(&fr.ID, &fr.Result, &fr.EndTime, &fr.BetAmount, &fr.BetType); err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

// RoundStats aggregates figures for the admin dashboard.
type RoundStats struct {
	TotalBets        int64   `json:"totalBets"`
	TotalAmount      float64 `json:"totalAmount"`
	TotalHouseProfit float64 `json:"houseProfit"`
}

func (s *Store) Stats(ctx context.Context) (*RoundStats, error) {
	var st RoundStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM bets),
			COALESCE((SELECT sum(amount) FROM bets), 0),
			COALESCE((SELECT sum(house_profit) FROM rounds WHERE status = $1), 0)`,
		RoundFinished).Scan(&st.TotalBets, &st.TotalAmount, &st.TotalHouseProfit)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
