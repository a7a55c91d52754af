package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/documents/exitslip"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// ExitSlipHandler handles exit slip endpoints.
type ExitSlipHandler struct {
	*BaseHandler
	service *exitslip.Service
}

// NewExitSlipHandler creates a new exit slip handler.
func NewExitSlipHandler(base *BaseHandler, service *exitslip.Service) *ExitSlipHandler {
	return &ExitSlipHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /exit-slips.
func (h *ExitSlipHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := exitslip.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" {
		s := exitslip.Status(status)
		filter.Status = &s
	}

	filter.Destination = c.Query("destination")

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromExitSlip(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /exit-slips/:id.
func (h *ExitSlipHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	slipID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	slip, err := h.service.GetByID(ctx, slipID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromExitSlip(slip))
}

// Create handles POST /exit-slips. The slip is created DRAFT; no stock
// moves until validation.
func (h *ExitSlipHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateExitSlipRequest
	if !h.BindJSON(c, &req) {
		return
	}

	slip, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(ctx, slip); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromExitSlip(slip))
}

// Validate handles POST /exit-slips/:id/validate. This is the operation
// that consumes FIFO lots and writes out movements, all or nothing.
func (h *ExitSlipHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

	slipID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	slip, err := h.service.Validate(ctx, slipID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromExitSlip(slip))
}

// Cancel handles POST /exit-slips/:id/cancel.
func (h *ExitSlipHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	slipID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	slip, err := h.service.Cancel(ctx, slipID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromExitSlip(slip))
}
