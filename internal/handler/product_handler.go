package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/solea-tours/experience-api/pkg/response"
)

type ruleCascade interface {
	DeleteByProduct(ctx context.Context, productID int64) error
}

type policyCascade interface {
	DeleteByProduct(ctx context.Context, productID int64) error
	DeleteSettings(ctx context.Context, productID int64) error
}

// ProductHandler owns the product deletion cascade. Removing a product must
// take its rules, overrides and settings with it; global overrides stay.
type ProductHandler struct {
	schedules ruleCascade
	overrides policyCascade
}

// NewProductHandler constructs the handler.
func NewProductHandler(schedules ruleCascade, overrides policyCascade) *ProductHandler {
	return &ProductHandler{schedules: schedules, overrides: overrides}
}

// Delete godoc
// @Summary Remove a product's rules, overrides and settings
// @Tags Products
// @Param productId path int true "Product id"
// @Success 204
// @Router /products/{productId} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, err := productIDParam(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.schedules.DeleteByProduct(ctx, productID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.overrides.DeleteByProduct(ctx, productID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.overrides.DeleteSettings(ctx, productID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
