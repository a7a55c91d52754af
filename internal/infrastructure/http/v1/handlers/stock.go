package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/lots"
	"lotledger/internal/domain/replenishment"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// StockHandler handles lot inspection, valuation and replenishment
// endpoints. All of it is read-only; stock changes only through
// order receipt and exit slip validation.
type StockHandler struct {
	*BaseHandler
	lotService     *lots.Service
	replenishments *replenishment.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, lotService *lots.Service, replenishments *replenishment.Service) *StockHandler {
	return &StockHandler{
		BaseHandler:    base,
		lotService:     lotService,
		replenishments: replenishments,
	}
}

// GetLot handles GET /stock/lots/:id.
func (h *StockHandler) GetLot(c *gin.Context) {
	ctx := c.Request.Context()

	lotID, err := id.Parse(c.Param("id"))
	if err != nil {
		// Fall back to lookup by lot number (LOT-2026-001).
		lot, lookupErr := h.lotService.GetByNumber(ctx, c.Param("id"))
		if lookupErr != nil {
			h.Error(c, lookupErr)
			return
		}
		c.JSON(http.StatusOK, dto.FromLot(lot))
		return
	}

	lot, err := h.lotService.GetByID(ctx, lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLot(lot))
}

// ListLots handles GET /stock/products/:productId/lots.
// Lots come back in FIFO order, oldest entry date first.
func (h *StockHandler) ListLots(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	filter := domain.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.lotService.ListForProduct(ctx, productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromLot(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// ProductValuation handles GET /stock/products/:productId/valuation.
// Value is the sum over open lots of available quantity times the
// lot's acquisition price.
func (h *StockHandler) ProductValuation(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	valuation, err := h.lotService.ValuationForProduct(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromProductValuation(valuation))
}

// TotalValuation handles GET /stock/valuation.
func (h *StockHandler) TotalValuation(c *gin.Context) {
	ctx := c.Request.Context()

	valuations, total, err := h.lotService.TotalValuation(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	products := make([]dto.ProductValuationResponse, len(valuations))
	for i, v := range valuations {
		products[i] = dto.FromProductValuation(v)
	}

	c.JSON(http.StatusOK, dto.ValuationResponse{
		Products: products,
		Total:    total,
	})
}

// CheckConsistency handles GET /stock/products/:productId/consistency.
// Verifies the cached product stock equals the sum over its lots.
func (h *StockHandler) CheckConsistency(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	if err := h.lotService.CheckConsistency(ctx, productID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "stock is consistent")
}

// Suggestions handles GET /stock/replenishment-suggestions.
// Evaluates the configured replenishment rule over the catalog.
func (h *StockHandler) Suggestions(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", 200)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	suggestions, err := h.replenishments.Scan(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		items[i] = dto.FromSuggestion(s)
	}

	c.JSON(http.StatusOK, gin.H{
		"rule":        h.replenishments.Rule().Expression(),
		"suggestions": items,
	})
}
