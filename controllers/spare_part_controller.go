package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

// QuickSearchQuery is the autocomplete lookup over parts
type QuickSearchQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"gte=0"`
}

// SparePartController serves the inventory endpoints
type SparePartController struct {
	inventory *services.InventoryService
	log       *zap.Logger
}

func NewSparePartController(inventory *services.InventoryService, log *zap.Logger) *SparePartController {
	return &SparePartController{inventory: inventory, log: log}
}

// CreatePart handles POST /api/v1/spare_parts
func (s *SparePartController) CreatePart(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	var req services.PartInput
	if !bindJSON(c, &req) {
		return
	}

	part, err := s.inventory.CreatePart(c.Request.Context(), req, me)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, part)
}

// ListParts handles GET /api/v1/spare_parts
func (s *SparePartController) ListParts(c *gin.Context) {
	var filters services.PartFilters
	if !bindQuery(c, &filters) {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := s.inventory.ListParts(c.Request.Context(), filters, page)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// GetPart handles GET /api/v1/spare_parts/:id
func (s *SparePartController) GetPart(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	part, err := s.inventory.GetPart(c.Request.Context(), id)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, part)
}

// GetPartBySKU handles GET /api/v1/spare_parts/sku/:sku
func (s *SparePartController) GetPartBySKU(c *gin.Context) {
	part, err := s.inventory.GetPartBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, part)
}

// UpdatePart handles PUT /api/v1/spare_parts/:id
func (s *SparePartController) UpdatePart(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.PartUpdate
	if !bindJSON(c, &req) {
		return
	}

	part, err := s.inventory.UpdatePart(c.Request.Context(), id, req, me)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, part)
}

// AdjustStock handles PATCH /api/v1/spare_parts/:id/stock
func (s *SparePartController) AdjustStock(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.StockAdjustment
	if !bindJSON(c, &req) {
		return
	}

	part, err := s.inventory.AdjustStock(c.Request.Context(), id, req, me)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, part)
}

// ListMovements handles GET /api/v1/spare_parts/:id/movements
func (s *SparePartController) ListMovements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	movements, err := s.inventory.ListStockMovements(c.Request.Context(), id)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, movements)
}

// DeletePart handles DELETE /api/v1/spare_parts/:id. The part is deactivated, not removed.
func (s *SparePartController) DeletePart(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.inventory.DeletePart(c.Request.Context(), id, me); err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Spare part deleted successfully"})
}

// LowStockAlerts handles GET /api/v1/spare_parts/alerts/low-stock
func (s *SparePartController) LowStockAlerts(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	alerts, err := s.inventory.GetLowStockAlerts(c.Request.Context(), me)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, alerts)
}

// Categories handles GET /api/v1/spare_parts/categories/all
func (s *SparePartController) Categories(c *gin.Context) {
	categories, err := s.inventory.GetCategories(c.Request.Context())
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, categories)
}

// QuickSearch handles GET /api/v1/spare_parts/search/quick?q=...
func (s *SparePartController) QuickSearch(c *gin.Context) {
	var q QuickSearchQuery
	if !bindQuery(c, &q) {
		return
	}

	parts, err := s.inventory.QuickSearch(c.Request.Context(), q.Q, q.Limit)
	if err != nil {
		handleError(c, s.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, parts)
}
