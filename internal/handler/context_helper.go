package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

func productIDParam(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	if raw == "" {
		raw = c.Query(name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "product id must be a positive integer")
	}
	return id, nil
}

// scopeParam is productIDParam but admitting 0, the global override scope.
func scopeParam(c *gin.Context) (int64, error) {
	raw := c.Param("productId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "product id must be a non-negative integer")
	}
	return id, nil
}

func parsePositiveInt(raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "value must be positive")
	}
	return value, nil
}

func dateQuery(c *gin.Context, name string, location *time.Location) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" query parameter is required")
	}
	date, err := time.ParseInLocation(models.DateFormat, raw, location)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" must be formatted as YYYY-MM-DD")
	}
	return date, nil
}
