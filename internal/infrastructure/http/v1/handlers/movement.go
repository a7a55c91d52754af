package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// MovementHandler handles stock movement history endpoints.
// The ledger is append-only, so the API is read-only.
type MovementHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, service *ledger.Service) *MovementHandler {
	return &MovementHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Get handles GET /movements/:id.
func (h *MovementHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	movement, err := h.service.GetByID(ctx, movementID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromMovement(movement))
}

// Search handles GET /movements with history filters, newest first.
func (h *MovementHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ledger.SearchFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if productStr := c.Query("productId"); productStr != "" {
		productID, err := id.Parse(productStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &productID
	}

	if lotStr := c.Query("lotId"); lotStr != "" {
		lotID, err := id.Parse(lotStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid lotId format"))
			return
		}
		filter.LotID = &lotID
	}

	if typeStr := c.Query("type"); typeStr != "" {
		movementType := ledger.MovementType(typeStr)
		filter.Type = &movementType
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date, expected RFC3339"))
			return
		}
		filter.From = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date, expected RFC3339"))
			return
		}
		filter.To = &to
	}

	filter.ProductRef = c.Query("productRef")
	filter.LotNumber = c.Query("lotNumber")

	result, err := h.service.Search(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromMovement(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
