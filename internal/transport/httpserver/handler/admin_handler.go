package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/app/service"
	"lehrmarkt-service/internal/domain"
	"lehrmarkt-service/internal/transport/httpserver/dto"
	"lehrmarkt-service/internal/validator"
)

// AdminHandler handles moderation and catalog administration routes.
type AdminHandler struct {
	materials *service.MaterialService
	sync      *service.CatalogSyncService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	materials *service.MaterialService,
	sync *service.CatalogSyncService,
	v *validator.Validator,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		materials: materials,
		sync:      sync,
		validator: v,
		logger:    logger,
	}
}

type materialIDParams struct {
	ID string `json:"id" validate:"required,uuid4"`
}

// Publish handles POST /api/admin/materials/:id/publish
func (h *AdminHandler) Publish(c *fiber.Ctx) error {
	return h.setPublished(c, true)
}

// Unpublish handles POST /api/admin/materials/:id/unpublish
func (h *AdminHandler) Unpublish(c *fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *AdminHandler) setPublished(c *fiber.Ctx, published bool) error {
	params := materialIDParams{ID: c.Params("id")}
	if err := h.validator.Validate(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "invalid material id",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	err := h.materials.SetPublished(c.Context(), params.ID, published)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "material not found",
			Code:  "NOT_FOUND",
		})
	}
	if err != nil {
		h.logger.Error("publish state change failed",
			zap.String("id", params.ID),
			zap.Bool("published", published),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(fiber.Map{
		"id":        params.ID,
		"published": published,
	})
}

type syncRequest struct {
	Publisher string `json:"publisher" validate:"omitempty,max=50"`
}

// SyncCatalog handles POST /api/admin/catalog/sync
//
// Without a body (or with an empty publisher) every configured publisher
// syncs; naming one syncs only that catalog.
func (h *AdminHandler) SyncCatalog(c *fiber.Ctx) error {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "invalid request body",
				Code:  "INVALID_BODY",
			})
		}
		if err := h.validator.Validate(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   "validation failed",
				Code:    "VALIDATION_ERROR",
				Details: err,
			})
		}
	}

	if req.Publisher == "" {
		h.logger.Info("manual catalog sync triggered")

		return c.JSON(dto.FromSyncResults(h.sync.SyncAll(c.Context())))
	}

	h.logger.Info("manual publisher sync triggered", zap.String("publisher", req.Publisher))

	result, err := h.sync.SyncPublisher(c.Context(), req.Publisher)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "SYNC_FAILED",
		})
	}
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "publisher not found",
			Code:  "PUBLISHER_NOT_FOUND",
		})
	}

	return c.JSON(dto.SyncResultResponse{
		Publisher: result.Publisher,
		Count:     result.Count,
		Duration:  result.Duration.String(),
	})
}
