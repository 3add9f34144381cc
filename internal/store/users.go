package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, name, password_hash, role, balance, loyalty_points, level, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.Balance, &u.LoyaltyPoints, &u.Level, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	id := uuid.New().String()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		id, email, name, passwordHash)

	u, err := scanUser(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrEmailTaken
	}
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) GetBalance(ctx context.Context, userID string) (float64, error) {
	var balance float64
	err := s.pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

// SearchUsersByEmail is the admin lookup; matches on email prefix.
func (s *Store) SearchUsersByEmail(ctx context.Context, email string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email ILIKE $1 || '%'
		ORDER BY email
		LIMIT $2`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DailyBetLimit resolves the user's per-day stake cap: the user_settings
// override when present, the given default otherwise.
func (s *Store) DailyBetLimit(ctx context.Context, userID string, defaultLimit float64) (float64, error) {
	var limit *float64
	err := s.pool.QueryRow(ctx,
		`SELECT daily_bet_limit FROM user_settings WHERE user_id = $1`, userID).Scan(&limit)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && limit == nil) {
		return defaultLimit, nil
	}
	if err != nil {
		return 0, err
	}
	return *limit, nil
}

func (s *Store) SetDailyBetLimit(ctx context.Context, userID string, limit float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, daily_bet_limit) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET daily_bet_limit = EXCLUDED.daily_bet_limit`,
		userID, limit)
	return err
}
