package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lotledger/internal/domain"
	"lotledger/internal/domain/catalogs/product"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
			Service:    service.CatalogService,
			EntityName: "product",
			MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
				req.ApplyTo(existing)
				return existing
			},
			MapToDTO: func(item *product.Product) any {
				return dto.FromProduct(item)
			},
		}),
		service: service,
	}
}

// LowStock handles GET /products/low-stock. Lists products whose
// cached stock sits at or below their reorder point.
func (h *ProductHandler) LowStock(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.service.FindLowStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromProduct(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
