package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateBet        = errors.New("duplicate bet for round")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInsufficientPoints  = errors.New("insufficient loyalty points")
)

// Store bundles all postgres repositories behind one handle.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *Store {
	return &Store{pool: pool, log: log}
}
