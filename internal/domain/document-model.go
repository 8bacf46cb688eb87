package domain

import "time"

type ValidationStatus string

const (
	ValidationStatusPending ValidationStatus = "pending"
	ValidationStatusValid   ValidationStatus = "valid"
	ValidationStatusInvalid ValidationStatus = "invalid"
)

// IsDecision reports whether s is a value an admin may set.
func (s ValidationStatus) IsDecision() bool {
	return s == ValidationStatusValid || s == ValidationStatusInvalid
}

// Display treats an empty value as pending.
func (s ValidationStatus) Display() string {
	if s == "" {
		return string(ValidationStatusPending)
	}
	return string(s)
}

func (s ValidationStatus) Tone() Tone {
	switch s {
	case ValidationStatusValid:
		return ToneSuccess
	case ValidationStatusInvalid:
		return ToneDanger
	default:
		return ToneWarning
	}
}

type Document struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ApplicationID    uint             `gorm:"not null;index" json:"application_id"`
	DocumentType     string           `gorm:"type:varchar(60);not null" json:"document_type"`
	ValidationStatus ValidationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"validation_status"`

	// stored upload
	MimeType *string `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	Content  []byte  `gorm:"type:bytea" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "application_documents"
}
