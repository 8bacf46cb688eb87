package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"gorm.io/gorm"
)

var (
	ErrNotUnderReview = errors.New("application is not under review")
	ErrNoSummaryPDF   = errors.New("application has no generated PDF")
)

// ApplicationRepository is the devserver's review store. Missing rows are
// reported as gorm.ErrRecordNotFound by every implementation.
type ApplicationRepository interface {
	List(filter dto.ApplicationFilter) ([]domain.Application, error)
	FindByID(id uint) (*domain.Application, error)

	Approve(id uint) error
	Reject(id uint, reason string) error

	FindDocument(docID uint) (*domain.Document, error)
	ValidateDocument(docID uint, status domain.ValidationStatus) error
	SummaryPDF(id uint) ([]byte, error)

	ListFeedbacks(filter dto.FeedbackFilter) ([]domain.Feedback, error)
	PageFeedbacks(filter dto.FeedbackFilter, page, perPage int) (dto.FeedbackPage, error)
	DeleteFeedback(id uint) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) withRelations() *gorm.DB {
	return r.db.
		Preload("User").
		Preload("VisaType").
		Preload("Country")
}

func (r *applicationRepository) List(filter dto.ApplicationFilter) ([]domain.Application, error) {
	var apps []domain.Application

	q := r.withRelations().
		Model(&domain.Application{}).
		Omit("SummaryPDF")

	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + term + "%"
		q = q.Joins("LEFT JOIN applicants ON applicants.id = applications.user_id").
			Where("applicants.full_name ILIKE ? OR applicants.email ILIKE ? OR applicants.passport_number ILIKE ?", like, like, like)
	}
	if filter.Status != "" {
		q = q.Where("applications.status = ?", filter.Status)
	}

	if err := q.Order("applications.created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) FindByID(id uint) (*domain.Application, error) {
	var app domain.Application
	err := r.withRelations().
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Omit("Content").Order("id ASC")
		}).
		Omit("SummaryPDF").
		First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// decide moves an under_review application to a terminal status.
func (r *applicationRepository) decide(id uint, updates map[string]any) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Application{}).
			Where("id = ? AND status = ?", id, domain.ApplicationStatusUnderReview).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&domain.Application{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrNotUnderReview
	})
}

func (r *applicationRepository) Approve(id uint) error {
	return r.decide(id, map[string]any{
		"status":        domain.ApplicationStatusApproved,
		"decision_date": time.Now(),
	})
}

func (r *applicationRepository) Reject(id uint, reason string) error {
	return r.decide(id, map[string]any{
		"status":           domain.ApplicationStatusRejected,
		"decision_date":    time.Now(),
		"rejection_reason": nullableReason(reason),
	})
}

func (r *applicationRepository) FindDocument(docID uint) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.First(&doc, docID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *applicationRepository) ValidateDocument(docID uint, status domain.ValidationStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var doc domain.Document
		if err := tx.Omit("Content").First(&doc, docID).Error; err != nil {
			return err
		}

		var app domain.Application
		if err := tx.Select("id", "status").First(&app, doc.ApplicationID).Error; err != nil {
			return err
		}
		if !app.Status.IsActionable() {
			return ErrNotUnderReview
		}
		return markValidation(tx, docID, status)
	})
}

func markValidation(tx *gorm.DB, docID uint, status domain.ValidationStatus) error {
	return tx.Model(&domain.Document{}).
		Where("id = ?", docID).
		Update("validation_status", status).Error
}

func (r *applicationRepository) SummaryPDF(id uint) ([]byte, error) {
	var app domain.Application
	if err := r.db.Select("id", "ai_pdf_path", "summary_pdf").First(&app, id).Error; err != nil {
		return nil, err
	}
	if !app.HasSummaryPDF() || len(app.SummaryPDF) == 0 {
		return nil, ErrNoSummaryPDF
	}
	return app.SummaryPDF, nil
}

func (r *applicationRepository) feedbackQuery(filter dto.FeedbackFilter) *gorm.DB {
	q := r.db.Model(&domain.Feedback{})
	if filter.Rating > 0 {
		q = q.Where("rating = ?", filter.Rating)
	}
	if filter.CountryID > 0 {
		q = q.Where("country_id = ?", filter.CountryID)
	}
	if filter.VisaTypeID > 0 {
		q = q.Where("visa_type_id = ?", filter.VisaTypeID)
	}
	return q
}

func (r *applicationRepository) ListFeedbacks(filter dto.FeedbackFilter) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := r.feedbackQuery(filter).
		Preload("User").Preload("Country").Preload("VisaType").
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *applicationRepository) PageFeedbacks(filter dto.FeedbackFilter, page, perPage int) (dto.FeedbackPage, error) {
	var total int64
	if err := r.feedbackQuery(filter).Count(&total).Error; err != nil {
		return dto.FeedbackPage{}, err
	}

	out := pageBounds(page, perPage, total)
	err := r.feedbackQuery(filter).
		Preload("User").Preload("Country").Preload("VisaType").
		Order("created_at DESC").
		Offset((out.CurrentPage - 1) * out.PerPage).
		Limit(out.PerPage).
		Find(&out.Data).Error
	if err != nil {
		return dto.FeedbackPage{}, err
	}
	return out, nil
}

func (r *applicationRepository) DeleteFeedback(id uint) error {
	res := r.db.Delete(&domain.Feedback{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// pageBounds clamps page into [1, last] for total rows split perPage at a time.
func pageBounds(page, perPage int, total int64) dto.FeedbackPage {
	if perPage <= 0 {
		perPage = dto.FeedbackPerPage
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}
	return dto.FeedbackPage{
		Data:        []domain.Feedback{},
		CurrentPage: page,
		LastPage:    last,
		PerPage:     perPage,
		Total:       total,
	}
}

func nullableReason(reason string) *string {
	if strings.TrimSpace(reason) == "" {
		return nil
	}
	return &reason
}
