package server

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dindin/internal/store"
)

func (s *FiberServer) statsHandler(c *fiber.Ctx) error {
	stats, err := s.store.Stats(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stats)
}

func (s *FiberServer) searchUsersHandler(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return badRequest(c, "Parâmetro email é obrigatório")
	}

	users, err := s.store.SearchUsersByEmail(c.Context(), email, c.QueryInt("limit", 20))
	if err != nil {
		return s.fail(c, err)
	}
	if users == nil {
		users = []store.User{}
	}
	return c.JSON(users)
}

func (s *FiberServer) rechargeHandler(c *fiber.Ctx) error {
	var req struct {
		UserID string  `json:"userId"`
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.UserID == "" || req.Amount <= 0 {
		return badRequest(c, "Usuário e valor são obrigatórios")
	}

	tx, balance, err := s.store.AdminRecharge(c.Context(), userID(c), req.UserID, req.Amount)
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info("admin recharge",
		zap.String("admin", userID(c)),
		zap.String("user", req.UserID),
		zap.Float64("amount", req.Amount))

	return c.JSON(fiber.Map{
		"transaction": tx,
		"balance":     balance,
	})
}

func (s *FiberServer) updateTransactionStatusHandler(c *fiber.Ctx) error {
	var req struct {
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.Status != store.TxCompleted && req.Status != store.TxRejected {
		return badRequest(c, "Status deve ser COMPLETED ou REJECTED")
	}

	tx, err := s.store.UpdateTransactionStatus(c.Context(), req.TransactionID, req.Status)
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info("transaction status updated",
		zap.String("admin", userID(c)),
		zap.String("transaction", tx.ID),
		zap.String("status", req.Status))

	return c.JSON(tx)
}

func (s *FiberServer) setDailyLimitHandler(c *fiber.Ctx) error {
	var req struct {
		UserID string  `json:"userId"`
		Limit  float64 `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.UserID == "" || req.Limit <= 0 {
		return badRequest(c, "Usuário e limite são obrigatórios")
	}

	if err := s.store.SetDailyBetLimit(c.Context(), req.UserID, req.Limit); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"userId": req.UserID, "dailyLimit": req.Limit})
}

// setHouseProfitHandler adjusts the edge applied to upcoming rounds. The
// round already open keeps the value it was created with.
func (s *FiberServer) setHouseProfitHandler(c *fiber.Ctx) error {
	var req struct {
		HouseProfit float64 `json:"houseProfit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.HouseProfit < 0 || req.HouseProfit > 100 {
		return badRequest(c, "Margem deve estar entre 0 e 100")
	}

	s.engine.SetHouseProfit(req.HouseProfit)

	s.log.Info("house profit updated",
		zap.String("admin", userID(c)),
		zap.Float64("houseProfit", req.HouseProfit))

	return c.JSON(fiber.Map{"houseProfit": s.engine.HouseProfit()})
}

func (s *FiberServer) initLevelsHandler(c *fiber.Ctx) error {
	if err := s.store.SeedLevels(c.Context()); err != nil {
		return s.fail(c, err)
	}
	levels, err := s.store.GetLevels(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"levels": levels})
}
