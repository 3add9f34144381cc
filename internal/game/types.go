package game

import "time"

// All wire-level durations are milliseconds.

type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	EventGameState    = "gameState"
	EventBettingStart = "bettingStart"
	EventRoundStart   = "roundStart"
	EventRoundEnd     = "roundEnd"
	EventLineUpdate   = "lineUpdate"
	EventTimeUpdate   = "timeUpdate"
	EventNewBet       = "newBet"
	EventChatMessage  = "chatMessage"
	EventPlayerCount  = "playerCount"
	EventBalance      = "balanceUpdate"
)

// Snapshot is the full game state pushed to (re)connecting clients.
type Snapshot struct {
	RoundID      string    `json:"roundId"`
	Phase        Phase     `json:"phase"`
	StartTime    time.Time `json:"startTime"`
	TimeLeftMs   int64     `json:"timeLeftMs"`
	LinePosition float64   `json:"linePosition"`
	Commitment   string    `json:"commitment"`
	PlayerCount  int       `json:"playerCount"`
}

type BettingStartMessage struct {
	RoundID    string    `json:"roundId"`
	StartTime  time.Time `json:"startTime"`
	BettingMs  int64     `json:"bettingMs"`
	Commitment string    `json:"commitment"`
}

type RoundStartMessage struct {
	RoundID   string `json:"roundId"`
	RunningMs int64  `json:"runningMs"`
}

type RoundEndMessage struct {
	RoundID       string  `json:"roundId"`
	Result        float64 `json:"result"`
	DisplayResult int     `json:"displayResult"`
	WinType       string  `json:"winType"`
	Multiplier    float64 `json:"multiplier"`
	ServerSeed    string  `json:"serverSeed"`
	Nonce         int64   `json:"nonce"`
}

type NewBetMessage struct {
	BetID  string  `json:"betId"`
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

type BalanceMessage struct {
	Balance   float64 `json:"balance"`
	WinAmount float64 `json:"winAmount"`
	RoundID   string  `json:"roundId"`
}

type ChatBroadcast struct {
	UserID string    `json:"userId"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}
