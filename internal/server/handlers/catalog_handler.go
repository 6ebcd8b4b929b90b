package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// CatalogService manages the reference data used by the engine.
type CatalogService interface {
	ListEggTypes(ctx context.Context) ([]models.EggType, error)
	CreateEggType(ctx context.Context, t models.EggType) (models.EggType, error)
	UpdateEggType(ctx context.Context, id string, t models.EggType) (models.EggType, error)
	DeleteEggType(ctx context.Context, id string) error
	ListPinHoleTypes(ctx context.Context) ([]trajectory.PinHoleType, error)
	CreatePinHoleType(ctx context.Context, t trajectory.PinHoleType) (trajectory.PinHoleType, error)
	UpdatePinHoleType(ctx context.Context, id string, t trajectory.PinHoleType) (trajectory.PinHoleType, error)
	DeletePinHoleType(ctx context.Context, id string) error
	Settings(ctx context.Context) (trajectory.RecommendationSettings, error)
	SaveSettings(ctx context.Context, s trajectory.RecommendationSettings) (trajectory.RecommendationSettings, error)
}

// CatalogHandler serves egg types, pin hole types and recommendation settings.
type CatalogHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

func (h *CatalogHandler) ListEggTypes(c *gin.Context) {
	types, err := h.svc.ListEggTypes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *CatalogHandler) CreateEggType(c *gin.Context) {
	var t models.EggType
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	created, err := h.svc.CreateEggType(c.Request.Context(), t)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateEggType(c *gin.Context) {
	var t models.EggType
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	updated, err := h.svc.UpdateEggType(c.Request.Context(), c.Param("id"), t)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteEggType(c *gin.Context) {
	if err := h.svc.DeleteEggType(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListPinHoleTypes(c *gin.Context) {
	types, err := h.svc.ListPinHoleTypes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *CatalogHandler) CreatePinHoleType(c *gin.Context) {
	var t trajectory.PinHoleType
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	created, err := h.svc.CreatePinHoleType(c.Request.Context(), t)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdatePinHoleType(c *gin.Context) {
	var t trajectory.PinHoleType
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	updated, err := h.svc.UpdatePinHoleType(c.Request.Context(), c.Param("id"), t)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeletePinHoleType(c *gin.Context) {
	if err := h.svc.DeletePinHoleType(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSettings returns the recommendation settings.
func (h *CatalogHandler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutSettings replaces the recommendation settings.
func (h *CatalogHandler) PutSettings(c *gin.Context) {
	var settings trajectory.RecommendationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	saved, err := h.svc.SaveSettings(c.Request.Context(), settings)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
