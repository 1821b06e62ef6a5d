package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/industrial-rag/backend/internal/middleware/validation"
	"github.com/industrial-rag/backend/internal/session"
)

type SessionHandler struct {
	sessions *session.Store
}

func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// History serves GET /api/v1/sessions/:id/history.
func (h *SessionHandler) History(c *fiber.Ctx) error {
	id, ok := validation.SessionIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid session id",
		})
	}

	history, err := h.sessions.History(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "session not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load session history",
		})
	}

	return c.JSON(fiber.Map{
		"session_id": id,
		"history":    history,
	})
}

// Delete serves DELETE /api/v1/sessions/:id.
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	id, ok := validation.SessionIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid session id",
		})
	}

	if err := h.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "session not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete session",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ResetSearches serves POST /api/v1/sessions/:id/reset-searches, restoring
// the session's full web-search budget.
func (h *SessionHandler) ResetSearches(c *fiber.Ctx) error {
	id, ok := validation.SessionIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid session id",
		})
	}

	h.sessions.ResetWebSearches(id)

	return c.JSON(fiber.Map{
		"session_id":             id,
		"web_searches_remaining": h.sessions.WebSearchesRemaining(id),
	})
}
