package store

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	Balance       float64   `json:"balance"`
	LoyaltyPoints int64     `json:"loyaltyPoints"`
	Level         int       `json:"level"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

const (
	RoundBetting  = "BETTING"
	RoundRunning  = "RUNNING"
	RoundFinished = "FINISHED"
)

type Round struct {
	ID          string     `json:"id"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Status      string     `json:"status"`
	Result      *float64   `json:"result,omitempty"`
	HouseProfit float64    `json:"houseProfit"`
	ServerSeed  string     `json:"-"`
	ClientSeed  string     `json:"clientSeed"`
	Nonce       int64      `json:"nonce"`
	Commitment  string     `json:"commitment"`
	CreatedAt   time.Time  `json:"createdAt"`
}

const (
	BetAbove = "ABOVE"
	BetBelow = "BELOW"

	BetPending   = "PENDING"
	BetCompleted = "COMPLETED"
)

type Bet struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	RoundID     string     `json:"roundId"`
	Amount      float64    `json:"amount"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Result      *float64   `json:"result,omitempty"`
	WinAmount   *float64   `json:"winAmount,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// BetWithRound is the shape returned by the bet history endpoint.
type BetWithRound struct {
	Bet
	Round Round `json:"round"`
}

const (
	TxDeposit    = "DEPOSIT"
	TxWithdrawal = "WITHDRAWAL"

	TxPending   = "PENDING"
	TxCompleted = "COMPLETED"
	TxRejected  = "REJECTED"
)

type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Amount    float64         `json:"amount"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

const (
	SenderUser   = "USER"
	SenderAdmin  = "ADMIN"
	SenderSystem = "SYSTEM"
)

type ChatMessage struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	SenderID   *string   `json:"senderId,omitempty"`
	SenderRole string    `json:"senderRole"`
	Body       string    `json:"body"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	IsFinal    bool      `json:"isFinal"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Level struct {
	Level     int    `json:"level"`
	Name      string `json:"name"`
	MinPoints int64  `json:"minPoints"`
}

type Reward struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CostPoints   int64   `json:"costPoints"`
	BalanceBonus float64 `json:"balanceBonus"`
	MinLevel     int     `json:"minLevel"`
}

// FinishedRound is a raw last-results row: the round outcome plus the
// caller's bet on it, if any. Payout math stays out of the store so the game
// package remains the single settlement authority.
type FinishedRound struct {
	ID        string
	Result    float64
	EndTime   time.Time
	BetAmount *float64
	BetType   *string
}
