package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/repository"
)

// adminID is the id carried in devserver tokens; there is a single configured admin.
const adminID uint = 1

// ReviewService is the devserver side of the admin review surface.
type ReviewService interface {
	Login(input dto.AdminLogin) (dto.LoginResponse, error)

	ListApplications(filter dto.ApplicationFilter) ([]domain.Application, error)
	GetApplication(id uint) (*domain.Application, error)
	Approve(id uint, by string) error
	Reject(id uint, reason, by string) error
	ValidateDocument(docID uint, status domain.ValidationStatus, by string) error

	DocumentContent(docID uint) (dto.BinaryPayload, error)
	SummaryPDF(id uint) (dto.BinaryPayload, error)
	ListFeedbacks(filter dto.FeedbackFilter, page int) (dto.FeedbackPage, error)
	DeleteFeedback(id uint, by string) error
	ExportFeedbacksCSV(filter dto.FeedbackFilter) ([]byte, error)
}

type reviewService struct {
	repo       repository.ApplicationRepository
	auth       helper.Auth
	adminEmail string
	adminHash  string
	publisher  *DecisionPublisher
	log        *slog.Logger
}

func NewReviewService(
	repo repository.ApplicationRepository,
	auth helper.Auth,
	adminEmail, adminPassword string,
	publisher *DecisionPublisher,
	log *slog.Logger,
) (ReviewService, error) {
	if log == nil {
		log = slog.Default()
	}
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &reviewService{
		repo:       repo,
		auth:       auth,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		adminHash:  hash,
		publisher:  publisher,
		log:        log,
	}, nil
}

func (s *reviewService) Login(input dto.AdminLogin) (dto.LoginResponse, error) {
	if !strings.EqualFold(strings.TrimSpace(input.Email), s.adminEmail) {
		return dto.LoginResponse{}, helper.ErrInvalidCredentials
	}
	if err := s.auth.VerifyPassword(input.Password, s.adminHash); err != nil {
		return dto.LoginResponse{}, err
	}

	token, err := s.auth.GenerateToken(adminID, s.adminEmail)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	return dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.auth.TTL / time.Second),
	}, nil
}

func (s *reviewService) ListApplications(filter dto.ApplicationFilter) ([]domain.Application, error) {
	return s.repo.List(filter)
}

func (s *reviewService) GetApplication(id uint) (*domain.Application, error) {
	return s.repo.FindByID(id)
}

func (s *reviewService) Approve(id uint, by string) error {
	if err := s.repo.Approve(id); err != nil {
		return err
	}
	s.log.Info("application approved", "application_id", id, "by", by)
	s.publisher.Approved(id, by)
	return nil
}

func (s *reviewService) Reject(id uint, reason, by string) error {
	if err := s.repo.Reject(id, reason); err != nil {
		return err
	}
	s.log.Info("application rejected", "application_id", id, "by", by, "has_reason", reason != "")
	s.publisher.Rejected(id, reason, by)
	return nil
}

func (s *reviewService) ValidateDocument(docID uint, status domain.ValidationStatus, by string) error {
	if !status.IsDecision() {
		return ErrInvalidValidation
	}
	if err := s.repo.ValidateDocument(docID, status); err != nil {
		return err
	}
	doc, err := s.repo.FindDocument(docID)
	if err != nil {
		return err
	}
	s.log.Info("document validated", "document_id", docID, "status", status, "by", by)
	s.publisher.DocumentValidated(doc.ApplicationID, docID, string(status), by)
	return nil
}

func (s *reviewService) DocumentContent(docID uint) (dto.BinaryPayload, error) {
	doc, err := s.repo.FindDocument(docID)
	if err != nil {
		return dto.BinaryPayload{}, err
	}
	ct := ContentTypeBinary
	if doc.MimeType != nil && *doc.MimeType != "" {
		ct = *doc.MimeType
	}
	return dto.BinaryPayload{Data: doc.Content, ContentType: ct}, nil
}

func (s *reviewService) SummaryPDF(id uint) (dto.BinaryPayload, error) {
	data, err := s.repo.SummaryPDF(id)
	if err != nil {
		return dto.BinaryPayload{}, err
	}
	return dto.BinaryPayload{Data: data, ContentType: ContentTypePDF}, nil
}

func (s *reviewService) ListFeedbacks(filter dto.FeedbackFilter, page int) (dto.FeedbackPage, error) {
	return s.repo.PageFeedbacks(filter, page, dto.FeedbackPerPage)
}

func (s *reviewService) DeleteFeedback(id uint, by string) error {
	if err := s.repo.DeleteFeedback(id); err != nil {
		return err
	}
	s.log.Info("feedback deleted", "feedback_id", id, "by", by)
	return nil
}

func (s *reviewService) ExportFeedbacksCSV(filter dto.FeedbackFilter) ([]byte, error) {
	rows, err := s.repo.ListFeedbacks(filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "user", "email", "country", "visa_type", "rating", "comment", "created_at"})
	for _, f := range rows {
		user, email := domain.NotAvailable, domain.NotAvailable
		if f.User != nil {
			user, email = f.User.FullName, f.User.Email
		}
		country := domain.NotAvailable
		if f.Country != nil {
			country = f.Country.CountryName
		}
		visa := domain.NotAvailable
		if f.VisaType != nil {
			visa = f.VisaType.VisaName
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(f.ID), 10),
			user,
			email,
			country,
			visa,
			strconv.Itoa(f.Rating),
			f.Comment,
			f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write feedback csv: %w", err)
	}
	return buf.Bytes(), nil
}
