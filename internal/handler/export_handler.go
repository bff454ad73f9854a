package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solea-tours/experience-api/internal/service"
	"github.com/solea-tours/experience-api/pkg/response"
)

type exportService interface {
	DayManifest(ctx context.Context, productID int64, date time.Time, format string) (*service.ExportFile, error)
}

// ExportHandler streams rendered day manifests.
type ExportHandler struct {
	exports  exportService
	location *time.Location
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService, location *time.Location) *ExportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ExportHandler{exports: exports, location: location}
}

// Manifest godoc
// @Summary Day manifest for a product as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param productId path int true "Product id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /products/{productId}/manifest [get]
func (h *ExportHandler) Manifest(c *gin.Context) {
	productID, err := productIDParam(c, "productId")
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date", h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.DayManifest(c.Request.Context(), productID, date, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
