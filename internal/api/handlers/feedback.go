package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/industrial-rag/backend/internal/storage/models"
	"github.com/industrial-rag/backend/internal/storage/sqlite"
)

type FeedbackHandler struct {
	store *sqlite.Client
}

func NewFeedbackHandler(store *sqlite.Client) *FeedbackHandler {
	return &FeedbackHandler{store: store}
}

type feedbackRequest struct {
	QueryID       string `json:"query_id"`
	Helpful       bool   `json:"helpful"`
	IssueCategory string `json:"issue_category"`
	Comment       string `json:"comment"`
}

// Submit serves POST /api/v1/feedback.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if strings.TrimSpace(req.QueryID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query_id is required",
		})
	}

	err := h.store.StoreFeedback(&models.Feedback{
		QueryID:       req.QueryID,
		Helpful:       req.Helpful,
		IssueCategory: req.IssueCategory,
		Comment:       req.Comment,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store feedback",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}
