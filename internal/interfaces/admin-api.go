package interfaces

import (
	"context"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
)

type ApplicationAPI interface {
	ListApplications(ctx context.Context, filter dto.ApplicationFilter) ([]domain.Application, error)
	GetApplication(ctx context.Context, id uint) (*domain.Application, error)
	ApproveApplication(ctx context.Context, id uint) error
	RejectApplication(ctx context.Context, id uint, reason string) error
	ValidateDocument(ctx context.Context, docID uint, status domain.ValidationStatus) error
}

// DocumentAPI fetches binary payloads that need the bearer header.
type DocumentAPI interface {
	PreviewDocument(ctx context.Context, docID uint) (dto.BinaryPayload, error)
	PreviewApplicationPDF(ctx context.Context, id uint) (dto.BinaryPayload, error)
	DownloadApplicationPDF(ctx context.Context, id uint) (dto.BinaryPayload, error)
}

type FeedbackAPI interface {
	ListFeedbacks(ctx context.Context, filter dto.FeedbackFilter, page int) (dto.FeedbackPage, error)
	DeleteFeedback(ctx context.Context, id uint) error
	ExportFeedbacks(ctx context.Context, filter dto.FeedbackFilter) (dto.BinaryPayload, error)
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (dto.LoginResponse, error)
}
