package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"dindin/internal/game"
	"dindin/internal/store"
)

// betHistoryEntry decorates a stored bet with the outcome as the client shows
// it.
type betHistoryEntry struct {
	store.BetWithRound
	Win           bool `json:"win"`
	DisplayResult int  `json:"displayResult,omitempty"`
}

type placeBetRequest struct {
	RoundID string  `json:"roundId"`
	Amount  float64 `json:"amount"`
	Type    string  `json:"type"`
}

func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req placeBetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}

	bet, balance, err := s.engine.PlaceBet(c.Context(), userID(c), req.RoundID, req.Amount, req.Type)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bet":     bet,
		"balance": balance,
	})
}

func (s *FiberServer) listBetsHandler(c *fiber.Ctx) error {
	bets, err := s.store.RecentBets(c.Context(), userID(c), c.QueryInt("limit", 10))
	if err != nil {
		return s.fail(c, err)
	}

	out := make([]betHistoryEntry, 0, len(bets))
	for _, b := range bets {
		entry := betHistoryEntry{BetWithRound: b}
		if b.Round.Result != nil {
			entry.Win = game.IsWin(b.Type, *b.Round.Result)
			entry.DisplayResult = game.DisplayResult(*b.Round.Result)
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

func (s *FiberServer) currentRoundHandler(c *fiber.Ctx) error {
	snap := s.engine.Snapshot()
	if snap == nil {
		// Between rounds or right after a restart the engine has nothing;
		// serve the cached snapshot so reconnecting clients still get the
		// last known state. No bet lookup against a possibly stale round.
		var cached game.Snapshot
		if err := s.cache.LoadRoundSnapshot(c.Context(), &cached); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Nenhuma rodada em andamento",
			})
		}
		return c.JSON(fiber.Map{"round": cached, "bet": nil})
	}

	bet, err := s.store.HasBetForRound(c.Context(), userID(c), snap.RoundID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"round": snap,
		"bet":   bet,
	})
}

// lastResultsHandler returns the recent finished rounds as the client renders
// them: display value, winning side and, when the caller bet, the payout.
func (s *FiberServer) lastResultsHandler(c *fiber.Ctx) error {
	rounds, err := s.store.LastFinishedRounds(c.Context(), userID(c), c.QueryInt("limit", 10))
	if err != nil {
		return s.fail(c, err)
	}

	out := make([]roundResultEntry, 0, len(rounds))
	for _, r := range rounds {
		entry := roundResultEntry{
			RoundID:       r.ID,
			Result:        r.Result,
			DisplayResult: game.DisplayResult(r.Result),
			WinType:       game.WinType(r.Result),
			EndTime:       r.EndTime,
		}
		if r.BetAmount != nil && r.BetType != nil {
			entry.BetAmount = r.BetAmount
			entry.BetType = r.BetType
			win := game.IsWin(*r.BetType, r.Result)
			entry.Won = &win
			payout := game.Payout(*r.BetType, *r.BetAmount, r.Result)
			entry.WinAmount = &payout
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

type roundResultEntry struct {
	RoundID       string    `json:"roundId"`
	Result        float64   `json:"result"`
	DisplayResult int       `json:"displayResult"`
	WinType       string    `json:"winType"`
	EndTime       time.Time `json:"endTime"`
	BetAmount     *float64  `json:"betAmount,omitempty"`
	BetType       *string   `json:"betType,omitempty"`
	Won           *bool     `json:"won,omitempty"`
	WinAmount     *float64  `json:"winAmount,omitempty"`
}
