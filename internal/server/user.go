package server

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dindin/internal/store"
)

func (s *FiberServer) balanceHandler(c *fiber.Ctx) error {
	balance, err := s.store.GetBalance(c.Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"balance": balance})
}

// levelHandler returns the user's loyalty standing plus the full ladder so
// the client can show progress to the next level.
func (s *FiberServer) levelHandler(c *fiber.Ctx) error {
	user, err := s.store.GetUser(c.Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	levels, err := s.store.GetLevels(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	var nextLevel *store.Level
	for i := range levels {
		if levels[i].Level == user.Level+1 {
			nextLevel = &levels[i]
			break
		}
	}

	return c.JSON(fiber.Map{
		"level":     user.Level,
		"points":    user.LoyaltyPoints,
		"levels":    levels,
		"nextLevel": nextLevel,
	})
}

func (s *FiberServer) rewardsHandler(c *fiber.Ctx) error {
	rewards, err := s.store.GetRewards(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	if rewards == nil {
		rewards = []store.Reward{}
	}
	return c.JSON(rewards)
}

func (s *FiberServer) redeemRewardHandler(c *fiber.Ctx) error {
	var req struct {
		RewardID string `json:"rewardId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.RewardID == "" {
		return badRequest(c, "Recompensa é obrigatória")
	}

	reward, err := s.store.GetReward(c.Context(), req.RewardID)
	if err != nil {
		return s.fail(c, err)
	}

	balance, points, err := s.store.RedeemReward(c.Context(), userID(c), reward)
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info("reward redeemed",
		zap.String("user", userID(c)),
		zap.String("reward", reward.ID))

	return c.JSON(fiber.Map{
		"balance": balance,
		"points":  points,
		"reward":  reward,
	})
}
