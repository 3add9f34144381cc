package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dindin/internal/auth"
	"dindin/internal/store"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

func (s *FiberServer) registerHandler(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return badRequest(c, "E-mail inválido")
	}
	if req.Name == "" {
		return badRequest(c, "Nome é obrigatório")
	}
	if len(req.Password) < 6 {
		return badRequest(c, "Senha deve ter pelo menos 6 caracteres")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return s.fail(c, err)
	}

	user, err := s.store.CreateUser(c.Context(), req.Email, req.Name, hash)
	if err != nil {
		return s.fail(c, err)
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info("user registered", zap.String("user", user.ID))
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token, User: user})
}

func (s *FiberServer) loginHandler(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}

	user, err := s.store.GetUserByEmail(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "E-mail ou senha incorretos",
			})
		}
		return s.fail(c, err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "E-mail ou senha incorretos",
		})
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(authResponse{Token: token, User: user})
}
