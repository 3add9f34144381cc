package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"dindin/internal/store"
)

// requireAuth validates the Bearer token and stores the caller's identity in
// the request locals.
func (s *FiberServer) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Não autenticado",
		})
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Sessão inválida ou expirada",
		})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

// requireAdmin gates operator routes. Non-admin callers get 401, the same
// answer an unauthenticated request gets, so the routes do not confirm their
// own existence.
func (s *FiberServer) requireAdmin(c *fiber.Ctx) error {
	if c.Locals("role") != store.RoleAdmin {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Não autorizado",
		})
	}
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func isAdmin(c *fiber.Ctx) bool {
	return c.Locals("role") == store.RoleAdmin
}
