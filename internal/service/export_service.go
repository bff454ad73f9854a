package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
	"github.com/solea-tours/experience-api/pkg/export"
)

type manifestSource interface {
	ListForDay(ctx context.Context, productID int64, date time.Time) ([]models.Booking, error)
}

// ExportFile is a rendered manifest ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders the day manifest operators hand to guides: every
// confirmed and still-pending booking for a product's date, as CSV or PDF.
type ExportService struct {
	bookings manifestSource
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	enabled  bool
}

// NewExportService constructs ExportService.
func NewExportService(bookings manifestSource, logger *zap.Logger, enabled bool) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings: bookings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		enabled:  enabled,
	}
}

var manifestHeaders = []string{"Booking", "Time", "Adults", "Children", "Party", "Status"}

// DayManifest renders the manifest for (product, date) in the requested
// format ("csv" or "pdf"). Cancelled and refunded bookings are omitted.
func (s *ExportService) DayManifest(ctx context.Context, productID int64, date time.Time, format string) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled")
	}
	bookings, err := s.bookings.ListForDay(ctx, productID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "booking ledger unavailable")
	}

	dataset := export.Dataset{Headers: manifestHeaders}
	for _, booking := range bookings {
		if !booking.Status.CountsTowardCapacity() {
			continue
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Booking":  booking.ID,
			"Time":     booking.Time,
			"Adults":   fmt.Sprintf("%d", booking.Adults),
			"Children": fmt.Sprintf("%d", booking.Children),
			"Party":    fmt.Sprintf("%d", booking.PartySize()),
			"Status":   string(booking.Status),
		})
	}

	day := date.Format(models.DateFormat)
	switch format {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render manifest csv")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("manifest-%d-%s.csv", productID, day),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		title := fmt.Sprintf("Manifest %s - product %d", day, productID)
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render manifest pdf")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("manifest-%d-%s.pdf", productID, day),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
