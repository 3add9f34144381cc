package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"dindin/internal/auth"
	"dindin/internal/cache"
	"dindin/internal/config"
	"dindin/internal/database"
	"dindin/internal/game"
	"dindin/internal/store"
)

type FiberServer struct {
	*fiber.App

	cfg    config.Config
	log    *zap.Logger
	db     database.Service
	cache  cache.Service
	store  *store.Store
	hub    *game.Hub
	engine *game.Engine
	tokens *auth.TokenService
}

// New wires the HTTP layer. Every collaborator is injected so tests can swap
// them out.
func New(cfg config.Config, log *zap.Logger, db database.Service, cacheSvc cache.Service,
	st *store.Store, hub *game.Hub, engine *game.Engine, tokens *auth.TokenService) *FiberServer {

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "dindin",
			AppName:       cfg.ServiceName,
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		cfg:    cfg,
		log:    log,
		db:     db,
		cache:  cacheSvc,
		store:  st,
		hub:    hub,
		engine: engine,
		tokens: tokens,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	return server
}

// Shutdown stops the game loop first so no round settles against a closing
// pool, then releases the connections.
func (s *FiberServer) Shutdown() error {
	s.log.Info("server shutting down")

	if s.engine != nil {
		s.engine.Stop()
	}

	err := s.App.Shutdown()

	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return err
}
