package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/budget-planner/internal/api/dto"
	"github.com/spec-kit/budget-planner/internal/auth"
	"github.com/spec-kit/budget-planner/internal/service"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

// ChatHandler manages assistant conversation endpoints.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{service: chatService}
}

// Chat POST /api/chat.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return apperrors.NewValidationError("message required", nil)
	}

	reply, sessionID, err := h.service.Chat(c.Context(), principal.User.ID, req.Message, req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChatResponse{Response: reply, SessionID: sessionID}})
}

// ListSessions GET /api/sessions.
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	sessions, err := h.service.ListSessions(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}

	items := make([]dto.ChatSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, dto.NewChatSessionResponse(s))
	}
	return c.JSON(fiber.Map{"data": items})
}

// History GET /api/sessions/:id/messages.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	session, messages, err := h.service.History(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, dto.NewChatMessageResponse(msg))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"session_id": session.ID,
		"title":      session.Title,
		"messages":   items,
	}})
}

// DeleteSession DELETE /api/sessions/:id.
func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.DeleteSession(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "session deleted"}})
}
