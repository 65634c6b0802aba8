package handler

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/app/service"
)

// DashboardHandler renders the operational stats page.
type DashboardHandler struct {
	materials *service.MaterialService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.MaterialService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		materials: svc,
		logger:    logger,
	}
}

// subjectCount is a template-friendly pair; maps iterate in random order.
type subjectCount struct {
	Subject string
	Count   int64
}

// Render handles GET /dashboard
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	total, err := h.materials.Count(c.Context())
	if err != nil {
		h.logger.Warn("dashboard count failed", zap.Error(err))
	}

	bySubject, err := h.materials.CountsBySubject(c.Context())
	if err != nil {
		h.logger.Warn("dashboard subject counts failed", zap.Error(err))
	}

	subjects := make([]subjectCount, 0, len(bySubject))
	for s, n := range bySubject {
		subjects = append(subjects, subjectCount{Subject: s, Count: n})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Count > subjects[j].Count })

	return c.Render("pages/dashboard", fiber.Map{
		"Title":         "Lehrmarkt Dashboard",
		"MaterialCount": total,
		"Subjects":      subjects,
	}, "layouts/base")
}
