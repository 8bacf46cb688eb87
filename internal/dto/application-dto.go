package dto

import "github.com/SundayYogurt/visa_admin/internal/domain"

type ApplicationFilter struct {
	Search string                   `json:"search"`
	Status domain.ApplicationStatus `json:"status"`
}

type ListApplicationsResponse struct {
	Applications []domain.Application `json:"applications"`
}

type ApplicationResponse struct {
	Application *domain.Application `json:"application"`
}

type RejectApplicationRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

type ValidateDocumentRequest struct {
	Status domain.ValidationStatus `json:"status" validate:"required,oneof=valid invalid" example:"valid"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// BinaryPayload is a raw response body plus its declared media type.
type BinaryPayload struct {
	Data        []byte
	ContentType string
}
