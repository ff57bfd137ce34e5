package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/TrackDesk/internal/app/model"
	"github.com/sifan077/TrackDesk/internal/app/repository"
	"go.uber.org/zap"
)

// HistoryHandler serves the recorded lookup events as JSON.
type HistoryHandler struct {
	logger *zap.Logger
	events repository.LookupEventRepository
}

// NewHistoryHandler creates a history handler backed by repo.
func NewHistoryHandler(logger *zap.Logger, repo repository.LookupEventRepository) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{logger: logger, events: repo}
}

// Register wires API routes onto the provided router.
func (h *HistoryHandler) Register(router fiber.Router) {
	router.Get("/history", h.List)
}

// LookupEventResponse is one history entry.
type LookupEventResponse struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	ISRC       string    `json:"isrc"`
	Outcome    string    `json:"outcome"`
	Status     int       `json:"status,omitempty"`
	Message    string    `json:"message,omitempty"`
	FirstSeen  bool      `json:"first_seen"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// List handles GET /api/history
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	limit := 20
	offset := 0

	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	operation := c.Query("operation")
	if operation != "" && operation != model.OperationCreate && operation != model.OperationRetrieve {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "operation must be one of: create, retrieve",
		})
	}

	events, err := h.events.List(c.UserContext(), repository.LookupFilter{
		ISRC:      c.Query("isrc"),
		Operation: operation,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.logger.Error("failed to list lookup events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list lookup events",
		})
	}

	response := make([]LookupEventResponse, len(events))
	for i, e := range events {
		response[i] = LookupEventResponse{
			ID:         e.ID,
			Operation:  e.Operation,
			ISRC:       e.ISRC,
			Outcome:    e.Outcome,
			Status:     e.Status,
			Message:    e.Message,
			FirstSeen:  e.FirstSeen,
			DurationMS: e.DurationMS,
			Timestamp:  e.Timestamp,
		}
	}

	return c.JSON(fiber.Map{
		"events": response,
		"limit":  limit,
		"offset": offset,
		"count":  len(response),
	})
}
