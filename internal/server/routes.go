package server

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)
	s.App.Static("/uploads", s.cfg.UploadDir)

	api := s.App.Group("/api")

	api.Post("/auth/register", s.registerHandler)
	api.Post("/auth/login", s.loginHandler)

	authed := api.Group("", s.requireAuth)

	authed.Get("/bets", s.listBetsHandler)
	authed.Post("/bets", s.placeBetHandler)

	authed.Get("/rounds/current", s.currentRoundHandler)
	authed.Get("/rounds/last-results", s.lastResultsHandler)

	authed.Get("/user/balance", s.balanceHandler)
	authed.Get("/user/level", s.levelHandler)
	authed.Get("/user/rewards", s.rewardsHandler)
	authed.Post("/user/rewards/redeem", s.redeemRewardHandler)

	authed.Get("/transactions", s.listTransactionsHandler)
	authed.Post("/transactions", s.createTransactionHandler)
	authed.Get("/transactions/:id", s.getTransactionHandler)

	authed.Get("/chat/messages", s.listChatHandler)
	authed.Post("/chat/messages", s.postChatHandler)
	authed.Post("/chat/upload", s.chatUploadHandler)
	authed.Get("/chat/close", s.chatStatusHandler)

	admin := authed.Group("/admin", s.requireAdmin)
	admin.Get("/stats", s.statsHandler)
	admin.Get("/users", s.searchUsersHandler)
	admin.Post("/users/limit", s.setDailyLimitHandler)
	admin.Post("/recharge", s.rechargeHandler)
	admin.Post("/transactions/update-status", s.updateTransactionStatusHandler)
	admin.Post("/rounds/house-profit", s.setHouseProfitHandler)
	admin.Get("/chat/conversations", s.listConversationsHandler)
	admin.Post("/chat/close", s.closeChatHandler)
	admin.Post("/system/init-levels", s.initLevelsHandler)

	// Websocket auth happens inside the handler; the token arrives as a query
	// parameter because browsers cannot set headers on websocket upgrades.
	s.App.Get("/ws", websocket.New(s.gameWebSocketHandler))
	s.App.Get("/api/socket", s.socketHandler)
}

// socketHandler upgrades when the client asks for a websocket; a plain GET is
// the idempotent transport check and gets the current status instead.
func (s *FiberServer) socketHandler(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(s.gameWebSocketHandler)(c)
	}
	return c.JSON(fiber.Map{
		"status":  "running",
		"path":    "/ws",
		"clients": s.hub.GetClientCount(),
	})
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"database": s.db.Health(),
		"cache":    s.cache.Health(),
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.GetClientCount(),
		},
	}
	return c.JSON(health)
}
