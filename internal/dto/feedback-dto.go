package dto

import "github.com/SundayYogurt/visa_admin/internal/domain"

// FeedbackPerPage is the server page size for the feedback list.
const FeedbackPerPage = 10

type FeedbackFilter struct {
	Rating     int  `json:"rating" validate:"omitempty,min=1,max=5"`
	CountryID  uint `json:"country_id"`
	VisaTypeID uint `json:"visa_type_id"`
}

type FeedbackPage struct {
	Data        []domain.Feedback `json:"data"`
	CurrentPage int               `json:"current_page"`
	LastPage    int               `json:"last_page"`
	PerPage     int               `json:"per_page"`
	Total       int64             `json:"total"`
}
