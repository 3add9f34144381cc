package server

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dindin/internal/game"
	"dindin/internal/store"
)

// Chat threads are keyed by the user they belong to. A player only sees their
// own thread; admins pick the thread with the userId query parameter.

func (s *FiberServer) chatOwner(c *fiber.Ctx) string {
	if isAdmin(c) {
		if target := c.Query("userId"); target != "" {
			return target
		}
	}
	return userID(c)
}

func (s *FiberServer) listChatHandler(c *fiber.Ctx) error {
	owner := s.chatOwner(c)

	messages, err := s.store.ListChatMessages(c.Context(), owner, c.QueryInt("limit", 100))
	if err != nil {
		return s.fail(c, err)
	}
	if messages == nil {
		messages = []store.ChatMessage{}
	}

	role := store.SenderUser
	if isAdmin(c) {
		role = store.SenderAdmin
	}
	if err := s.store.MarkChatRead(c.Context(), owner, role); err != nil {
		s.log.Warn("mark chat read failed", zap.Error(err))
	}

	return c.JSON(messages)
}

type postChatRequest struct {
	UserID   string  `json:"userId"` // admin only, selects the thread
	Body     string  `json:"body"`
	ImageURL *string `json:"imageUrl"`
}

func (s *FiberServer) postChatHandler(c *fiber.Ctx) error {
	var req postChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" && req.ImageURL == nil {
		return badRequest(c, "Mensagem vazia")
	}

	owner := userID(c)
	senderRole := store.SenderUser
	if isAdmin(c) && req.UserID != "" {
		owner = req.UserID
		senderRole = store.SenderAdmin
	}

	sender := userID(c)
	msg, err := s.store.InsertChatMessage(c.Context(), owner, &sender, senderRole, req.Body, req.ImageURL, false)
	if err != nil {
		return s.fail(c, err)
	}

	s.notifyChat(owner, msg)
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// chatUploadHandler stores a chat attachment and returns its public URL. The
// message referencing it is posted separately.
func (s *FiberServer) chatUploadHandler(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Arquivo é obrigatório")
	}
	if file.Size > 5*1024*1024 {
		return badRequest(c, "Arquivo excede 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return badRequest(c, "Formato de arquivo não suportado")
	}

	name := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(s.cfg.UploadDir, name)); err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": fmt.Sprintf("/uploads/%s", name),
	})
}

// chatStatusHandler tells the client whether its thread was closed by an
// operator; posting a new message reopens it.
func (s *FiberServer) chatStatusHandler(c *fiber.Ctx) error {
	closed, final, err := s.store.IsChatClosed(c.Context(), s.chatOwner(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"closed":   closed,
		"closedBy": final,
	})
}

func (s *FiberServer) closeChatHandler(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.UserID == "" {
		return badRequest(c, "Usuário é obrigatório")
	}

	msg, err := s.store.InsertChatMessage(c.Context(), req.UserID, nil,
		store.SenderSystem, "Atendimento encerrado", nil, true)
	if err != nil {
		return s.fail(c, err)
	}

	s.notifyChat(req.UserID, msg)
	return c.JSON(msg)
}

func (s *FiberServer) listConversationsHandler(c *fiber.Ctx) error {
	conversations, err := s.store.ListChatConversations(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	if conversations == nil {
		conversations = []store.ChatConversation{}
	}
	return c.JSON(conversations)
}

// notifyChat pushes the persisted message to the thread owner's live
// connections.
func (s *FiberServer) notifyChat(owner string, msg *store.ChatMessage) {
	s.hub.SendToUser(owner, game.WSMessage{Type: game.EventChatMessage, Data: msg})
}
