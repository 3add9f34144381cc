package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dindin/internal/game"
	"dindin/internal/store"
)

// fail translates domain errors into the JSON error envelope. Rejections keep
// their status and limit details; store sentinels map to fixed statuses;
// anything else is a 500 that never leaks internals to the client.
func (s *FiberServer) fail(c *fiber.Ctx, err error) error {
	var rej *game.Rejection
	if errors.As(err, &rej) {
		body := fiber.Map{"message": rej.Message}
		for k, v := range rej.Extra {
			body[k] = v
		}
		return c.Status(rej.Status).JSON(body)
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Não encontrado"})
	case errors.Is(err, store.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "E-mail já cadastrado"})
	case errors.Is(err, store.ErrInsufficientBalance):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Saldo insuficiente"})
	case errors.Is(err, store.ErrInsufficientPoints):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Pontos ou nível insuficientes"})
	}

	s.log.Error("request failed",
		zap.String("path", c.Path()),
		zap.String("method", c.Method()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Erro interno do servidor",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}
