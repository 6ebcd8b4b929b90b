package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository/sheets"
	"github.com/mamadbah2/hatchery/internal/service/incubation"
	"github.com/mamadbah2/hatchery/internal/service/reporting"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// EggService is the incubation pipeline as seen by the HTTP layer.
type EggService interface {
	CreateEgg(ctx context.Context, egg models.Egg) (models.Egg, error)
	GetEgg(ctx context.Context, id string) (models.Egg, error)
	ListEggs(ctx context.Context) ([]models.Egg, error)
	UpdateEgg(ctx context.Context, id string, patch models.Egg) (models.Egg, error)
	DeleteEgg(ctx context.Context, id string) error
	RecordWeights(ctx context.Context, id string, edits []incubation.WeightEdit) (models.Egg, error)
	Interpolate(ctx context.Context, id string) (models.Egg, error)
	Recommend(ctx context.Context, id string) (trajectory.RecommendationResult, error)
	Overview(ctx context.Context, id string, now time.Time) (models.EggOverview, error)
}

// EggHandler serves /api/eggs.
type EggHandler struct {
	svc      EggService
	exporter sheets.SeriesExporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewEggHandler constructs the handler. A nil exporter disables the export route.
func NewEggHandler(svc EggService, exporter sheets.SeriesExporter, logger *zap.Logger) *EggHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EggHandler{svc: svc, exporter: exporter, logger: logger, now: time.Now}
}

// List returns every egg.
func (h *EggHandler) List(c *gin.Context) {
	eggs, err := h.svc.ListEggs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, eggs)
}

// Create stores a new egg with its initial series.
func (h *EggHandler) Create(c *gin.Context) {
	var req models.EggRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	egg, err := h.svc.CreateEgg(c.Request.Context(), req.ToEgg())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, egg)
}

// Get returns one egg.
func (h *EggHandler) Get(c *gin.Context) {
	egg, err := h.svc.GetEgg(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, egg)
}

// Update replaces the editable fields of an egg.
func (h *EggHandler) Update(c *gin.Context) {
	var req models.EggRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	egg, err := h.svc.UpdateEgg(c.Request.Context(), c.Param("id"), req.ToEgg())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, egg)
}

// Delete removes an egg.
func (h *EggHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteEgg(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PutWeights sets or clears daily weights and returns the re-interpolated egg.
func (h *EggHandler) PutWeights(c *gin.Context) {
	var req models.WeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	edits := make([]incubation.WeightEdit, 0, len(req.Weights))
	for _, w := range req.Weights {
		edits = append(edits, incubation.WeightEdit{Day: *w.Day, Weight: w.Weight})
	}

	egg, err := h.svc.RecordWeights(c.Request.Context(), c.Param("id"), edits)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, egg)
}

// Interpolate recomputes the derived days of an egg.
func (h *EggHandler) Interpolate(c *gin.Context) {
	egg, err := h.svc.Interpolate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, egg)
}

// Recommendations returns the pin hole plan for an egg.
func (h *EggHandler) Recommendations(c *gin.Context) {
	id := c.Param("id")
	res, err := h.svc.Recommend(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.RecommendationsResponse{EggID: id, RecommendationResult: res})
}

// Overview returns progress and deviation markers for an egg.
func (h *EggHandler) Overview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Export writes the egg's series to its own spreadsheet tab.
func (h *EggHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sheets export is not configured"})
		return
	}

	egg, err := h.svc.GetEgg(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	tab := fmt.Sprintf("%s %s", egg.Name, reporting.ShortID(egg.ID))
	sheetRange, rows, err := h.exporter.ExportSeries(c.Request.Context(), tab, egg.DailyWeights)
	if err != nil {
		h.logger.Error("sheets export failed", zap.String("egg", egg.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "sheets export failed"})
		return
	}
	c.JSON(http.StatusOK, models.ExportResponse{Range: sheetRange, Rows: rows})
}
