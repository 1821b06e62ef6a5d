package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/ingestion"
	"github.com/industrial-rag/backend/pkg/logger"
)

type DocumentHandler struct {
	processor *ingestion.Processor
}

func NewDocumentHandler(processor *ingestion.Processor) *DocumentHandler {
	return &DocumentHandler{processor: processor}
}

// Ingest serves POST /api/v1/documents.
func (h *DocumentHandler) Ingest(c *fiber.Ctx) error {
	var req ingestion.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.processor.Ingest(c.Context(), req)
	if err != nil {
		logger.Error("document ingestion failed",
			zap.String("source", req.Source),
			zap.Error(err),
		)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}
