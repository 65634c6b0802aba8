// Package handler provides HTTP handlers for the API.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/app/service"
	"lehrmarkt-service/internal/transport/httpserver/dto"
)

// MaterialsHandler handles the public materials listing and detail routes.
type MaterialsHandler struct {
	service *service.MaterialService
	logger  *zap.Logger
}

// NewMaterialsHandler creates a new MaterialsHandler.
func NewMaterialsHandler(svc *service.MaterialService, logger *zap.Logger) *MaterialsHandler {
	return &MaterialsHandler{
		service: svc,
		logger:  logger,
	}
}

// List handles GET /api/materials
//
// Filter parsing is lenient by contract: malformed pagination or enum
// values normalize to defaults instead of producing a 400. The only
// error this route returns is the generic 500.
func (h *MaterialsHandler) List(c *fiber.Ctx) error {
	var req dto.ListMaterialsRequest
	if err := c.QueryParser(&req); err != nil {
		// All fields are strings, so this only fires on a torn query
		// string. Treat it like any other unparseable filter: ignore.
		h.logger.Debug("query parse failed, serving defaults", zap.Error(err))
		req = dto.ListMaterialsRequest{}
	}

	result, err := h.service.Search(c.Context(), req.ToSearchParams())
	if err != nil {
		h.logger.Error("materials search failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromSearchResult(result))
}

// GetByID handles GET /api/materials/:id
func (h *MaterialsHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	material, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		h.logger.Error("get material failed", zap.String("id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}

	if material == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "material not found",
			Code:  "NOT_FOUND",
		})
	}

	return c.JSON(dto.FromDomainMaterial(material))
}
