package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/apperror"
	"github.com/industrial-rag/backend/internal/chat"
	"github.com/industrial-rag/backend/pkg/logger"
)

type ChatHandler struct {
	engine *chat.Engine
}

func NewChatHandler(engine *chat.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// Handle serves POST /api/v1/chat.
func (h *ChatHandler) Handle(c *fiber.Ctx) error {
	var req chat.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	resp, err := h.engine.Chat(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(resp)
}

// writeError maps the application error taxonomy onto HTTP statuses.
func writeError(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		logger.Error("unclassified error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch appErr.Kind {
	case apperror.KindValidation:
		status = fiber.StatusBadRequest
	case apperror.KindEmbedding, apperror.KindLLM:
		status = fiber.StatusBadGateway
	case apperror.KindRetrieval:
		status = fiber.StatusServiceUnavailable
	case apperror.KindConfiguration:
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("kind", string(appErr.Kind)), zap.Error(err))
	}

	body := fiber.Map{
		"error": appErr.Message,
		"kind":  string(appErr.Kind),
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}

	return c.Status(status).JSON(body)
}
