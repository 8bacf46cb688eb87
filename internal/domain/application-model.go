package domain

import (
	"errors"
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review" // only actionable state
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

var (
	ErrNotActionable = errors.New("application is not under review")
	ErrInvalidStatus = errors.New("invalid application status")
)

// Statuses lists every known status in lifecycle order.
func Statuses() []ApplicationStatus {
	return []ApplicationStatus{
		ApplicationStatusPending,
		ApplicationStatusUnderReview,
		ApplicationStatusApproved,
		ApplicationStatusRejected,
	}
}

// ParseStatusFilter accepts a status value or one of "", "any", "all" meaning no filter.
func ParseStatusFilter(s string) (ApplicationStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "any", "all":
		return "", nil
	}
	v = strings.ReplaceAll(v, " ", "_")
	for _, st := range Statuses() {
		if string(st) == v {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// IsActionable reports whether admin approve/reject and document validation are allowed.
func (s ApplicationStatus) IsActionable() bool {
	return s == ApplicationStatusUnderReview
}

func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Display is for rendering only; comparisons always use the raw value.
func (s ApplicationStatus) Display() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func (s ApplicationStatus) Tone() Tone {
	switch s {
	case ApplicationStatusPending:
		return ToneWarning
	case ApplicationStatusUnderReview:
		return ToneInfo
	case ApplicationStatusApproved:
		return ToneSuccess
	case ApplicationStatusRejected:
		return ToneDanger
	default:
		return ToneNeutral
	}
}

type Application struct {
	ID     uint              `gorm:"primaryKey" json:"id"`
	Status ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	UserID     uint `gorm:"not null;index" json:"user_id"`
	VisaTypeID uint `gorm:"not null;index" json:"visa_type_id"`
	CountryID  uint `gorm:"not null;index" json:"country_id"`

	// set together when the application leaves under_review
	DecisionDate    *time.Time `json:"decision_date,omitempty"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason,omitempty"`

	// generated summary PDF
	AIPDFPath  *string `gorm:"column:ai_pdf_path;type:text" json:"ai_pdf_path,omitempty"`
	SummaryPDF []byte  `gorm:"type:bytea" json:"-"`

	// --- Relations ---
	User      *Applicant `gorm:"foreignKey:UserID" json:"user,omitempty"`
	VisaType  *VisaType  `gorm:"foreignKey:VisaTypeID" json:"visa_type,omitempty"`
	Country   *Country   `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	Documents []Document `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignKey:ApplicationID" json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Application) CanDecide() bool {
	return a != nil && a.Status.IsActionable()
}

func (a *Application) CanValidateDocuments() bool {
	return a != nil && a.Status.IsActionable()
}

func (a *Application) HasSummaryPDF() bool {
	return a != nil && a.AIPDFPath != nil && strings.TrimSpace(*a.AIPDFPath) != ""
}

// Document returns the owned document with id, or nil.
func (a *Application) Document(id uint) *Document {
	if a == nil {
		return nil
	}
	for i := range a.Documents {
		if a.Documents[i].ID == id {
			return &a.Documents[i]
		}
	}
	return nil
}

// PatchDocumentValidation updates only the matching document. It reports whether one matched.
func (a *Application) PatchDocumentValidation(id uint, status ValidationStatus) bool {
	doc := a.Document(id)
	if doc == nil {
		return false
	}
	doc.ValidationStatus = status
	return true
}

func (a *Application) ApplicantName() string {
	if a == nil || a.User == nil || strings.TrimSpace(a.User.FullName) == "" {
		return NotAvailable
	}
	return a.User.FullName
}

func (a *Application) VisaName() string {
	if a == nil || a.VisaType == nil || strings.TrimSpace(a.VisaType.VisaName) == "" {
		return NotAvailable
	}
	return a.VisaType.VisaName
}

func (a *Application) CountryName() string {
	if a == nil || a.Country == nil || strings.TrimSpace(a.Country.CountryName) == "" {
		return NotAvailable
	}
	return a.Country.CountryName
}

// Clone returns a deep copy so callers can hand out snapshots of controller state.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	if a.User != nil {
		u := *a.User
		out.User = &u
	}
	if a.VisaType != nil {
		v := *a.VisaType
		out.VisaType = &v
	}
	if a.Country != nil {
		c := *a.Country
		out.Country = &c
	}
	if a.DecisionDate != nil {
		d := *a.DecisionDate
		out.DecisionDate = &d
	}
	if a.RejectionReason != nil {
		r := *a.RejectionReason
		out.RejectionReason = &r
	}
	if a.AIPDFPath != nil {
		p := *a.AIPDFPath
		out.AIPDFPath = &p
	}
	if a.SummaryPDF != nil {
		out.SummaryPDF = append([]byte(nil), a.SummaryPDF...)
	}
	if a.Documents != nil {
		out.Documents = make([]Document, len(a.Documents))
		for i, d := range a.Documents {
			out.Documents[i] = d
			out.Documents[i].Content = nil
		}
	}
	return &out
}
