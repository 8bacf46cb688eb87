package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
)

type FeedbackExportService struct {
	api    interfaces.FeedbackAPI
	viewer *DocumentViewer
	now    func() time.Time
	log    *slog.Logger
}

func NewFeedbackExportService(api interfaces.FeedbackAPI, viewer *DocumentViewer, log *slog.Logger) *FeedbackExportService {
	if log == nil {
		log = slog.Default()
	}
	return &FeedbackExportService{api: api, viewer: viewer, now: time.Now, log: log}
}

// Export downloads the filtered feedback as feedbacks_<date>.csv.
func (s *FeedbackExportService) Export(ctx context.Context, filter dto.FeedbackFilter) (string, error) {
	if err := helper.ValidateStruct(filter); err != nil {
		return "", errors.New(helper.FormatValidationErrors(err))
	}
	fetch := func(ctx context.Context) (dto.BinaryPayload, error) {
		return s.api.ExportFeedbacks(ctx, filter)
	}
	path, err := s.viewer.Download(ctx, fetch, ContentTypeCSV, FeedbackFilename(s.now()), "Failed to export feedbacks")
	if err != nil {
		return "", err
	}
	s.log.Info("feedbacks exported", "path", path, "rating", filter.Rating, "country_id", filter.CountryID, "visa_type_id", filter.VisaTypeID)
	return path, nil
}

// FeedbackFilename dates the export in UTC.
func FeedbackFilename(t time.Time) string {
	return "feedbacks_" + t.UTC().Format("2006-01-02") + ".csv"
}
