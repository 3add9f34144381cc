package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AddLoyaltyPoints accrues points and recomputes the user's level from the
// levels table in one statement. Returns the new totals.
func (s *Store) AddLoyaltyPoints(ctx context.Context, userID string, points int64) (totalPoints int64, level int, err error) {
	err = s.pool.QueryRow(ctx, `
		UPDATE users u
		SET loyalty_points = u.loyalty_points + $1,
		    level = (SELECT max(l.level) FROM levels l WHERE l.min_points <= u.loyalty_points + $1),
		    updated_at = now()
		WHERE u.id = $2
		RETURNING u.loyalty_points, u.level`,
		points, userID).Scan(&totalPoints, &level)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	return totalPoints, level, err
}

func (s *Store) GetLevels(ctx context.Context) ([]Level, error) {
	rows, err := s.pool.Query(ctx, `SELECT level, name, min_points FROM levels ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Level
	for rows.Next() {
		var l Level
		if err := rows.Scan(&l.Level, &l.Name, &l.MinPoints); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) GetReward(ctx context.Context, id string) (*Reward, error) {
	var r Reward
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, cost_points, balance_bonus, min_level FROM rewards WHERE id = $1`,
		id).Scan(&r.ID, &r.Name, &r.CostPoints, &r.BalanceBonus, &r.MinLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRewards(ctx context.Context) ([]Reward, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, cost_points, balance_bonus, min_level FROM rewards ORDER BY cost_points`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reward
	for rows.Next() {
		var r Reward
		if err := rows.Scan(&r.ID, &r.Name, &r.CostPoints, &r.BalanceBonus, &r.MinLevel); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RedeemReward exchanges loyalty points for a balance credit. Point deduction
// is conditional on the user having enough points and the required level, and
// the credit plus ledger entry land in the same transaction.
func (s *Store) RedeemReward(ctx context.Context, userID string, reward *Reward) (balance float64, points int64, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		UPDATE users
		SET loyalty_points = loyalty_points - $1,
		    balance = balance + $2,
		    updated_at = now()
		WHERE id = $3 AND loyalty_points >= $1 AND level >= $4
		RETURNING balance, loyalty_points`,
		reward.CostPoints, reward.BalanceBonus, userID, reward.MinLevel).Scan(&balance, &points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrInsufficientPoints
	}
	if err != nil {
		return 0, 0, err
	}

	details, _ := json.Marshal(map[string]any{
		"description": "loyalty reward redeemed",
		"rewardId":    reward.ID,
		"costPoints":  reward.CostPoints,
	})
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, amount, type, status, details)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), userID, reward.BalanceBonus, TxDeposit, TxCompleted, details)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return balance, points, nil
}

// SeedLevels restores the default level ladder and rewards; used by the admin
// init endpoint after a wipe.
func (s *Store) SeedLevels(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO levels (level, name, min_points) VALUES
			(1, 'Bronze', 0),
			(2, 'Prata', 500),
			(3, 'Ouro', 2000),
			(4, 'Platina', 8000),
			(5, 'Diamante', 20000)
		ON CONFLICT (level) DO UPDATE SET name = EXCLUDED.name, min_points = EXCLUDED.min_points`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rewards (id, name, cost_points, balance_bonus, min_level) VALUES
			('bonus-5', 'Bônus R$ 5,00', 250, 5.0, 1),
			('bonus-25', 'Bônus R$ 25,00', 1000, 25.0, 2),
			('bonus-100', 'Bônus R$ 100,00', 3500, 100.0, 3),
			('bonus-500', 'Bônus R$ 500,00', 15000, 500.0, 5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, cost_points = EXCLUDED.cost_points,
			balance_bonus = EXCLUDED.balance_bonus, min_level = EXCLUDED.min_level`)
	return err
}
