package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const txColumns = `id, user_id, amount, type, status, details, created_at, updated_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Status,
		&t.Details, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Deposit credits the balance and records a COMPLETED ledger entry in one
// transaction.
func (s *Store) Deposit(ctx context.Context, userID string, amount float64, details json.RawMessage) (*Transaction, float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance`,
		amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, amount, type, status, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+txColumns,
		uuid.New().String(), userID, amount, TxDeposit, TxCompleted, details)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return t, balance, nil
}

// Withdraw debits the balance immediately and records a PENDING entry that an
// admin later completes or rejects. The debit is conditional on sufficient
// balance.
func (s *Store) Withdraw(ctx context.Context, userID string, amount float64, details json.RawMessage) (*Transaction, float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1
		RETURNING balance`,
		amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrInsufficientBalance
	}
	if err != nil {
		return nil, 0, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, amount, type, status, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+txColumns,
		uuid.New().String(), userID, -amount, TxWithdrawal, TxPending, details)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return t, balance, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (s *Store) RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTransactionStatus moves a PENDING transaction to COMPLETED or
// REJECTED. Rejecting a withdrawal refunds the held amount.
func (s *Store) UpdateTransactionStatus(ctx context.Context, id, status string) (*Transaction, error) {
	if status != TxCompleted && status != TxRejected {
		return nil, errors.New("status must be COMPLETED or REJECTED")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE transactions SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING `+txColumns,
		status, id, TxPending)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}

	if status == TxRejected && t.Type == TxWithdrawal {
		// t.Amount is negative for withdrawals; refund the absolute value.
		_, err = tx.Exec(ctx, `
			UPDATE users SET balance = GREATEST(0, balance - $1), updated_at = now()
			WHERE id = $2`,
			t.Amount, t.UserID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// AdminRecharge credits a user's balance on behalf of an operator and writes
// a COMPLETED deposit entry describing who did it.
func (s *Store) AdminRecharge(ctx context.Context, adminID, userID string, amount float64) (*Transaction, float64, error) {
	details, _ := json.Marshal(map[string]string{
		"description": "admin recharge",
		"adminId":     adminID,
	})
	return s.Deposit(ctx, userID, amount, details)
}
