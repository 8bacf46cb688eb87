package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"gorm.io/gorm"
)

type memoryRepository struct {
	mu sync.RWMutex

	applicants map[uint]domain.Applicant
	countries  map[uint]domain.Country
	visaTypes  map[uint]domain.VisaType
	apps       map[uint]*domain.Application
	feedbacks  []domain.Feedback
	now        func() time.Time
}

// NewMemoryRepository serves seed from memory; used when no DATABASE_DSN is set.
func NewMemoryRepository(seed Seed) ApplicationRepository {
	r := &memoryRepository{
		applicants: make(map[uint]domain.Applicant, len(seed.Applicants)),
		countries:  make(map[uint]domain.Country, len(seed.Countries)),
		visaTypes:  make(map[uint]domain.VisaType, len(seed.VisaTypes)),
		apps:       make(map[uint]*domain.Application, len(seed.Applications)),
		feedbacks:  append([]domain.Feedback(nil), seed.Feedbacks...),
		now:        time.Now,
	}
	for _, a := range seed.Applicants {
		r.applicants[a.ID] = a
	}
	for _, c := range seed.Countries {
		r.countries[c.ID] = c
	}
	for _, v := range seed.VisaTypes {
		r.visaTypes[v.ID] = v
	}
	for i := range seed.Applications {
		app := seed.Applications[i]
		docs := make([]domain.Document, len(app.Documents))
		copy(docs, app.Documents)
		app.Documents = docs
		r.apps[app.ID] = &app
	}
	return r
}

// hydrate returns a detached copy with relations filled in and blobs stripped.
func (r *memoryRepository) hydrate(app *domain.Application, withDocs bool) domain.Application {
	out := app.Clone()
	out.SummaryPDF = nil
	if !withDocs {
		out.Documents = nil
	}
	if u, ok := r.applicants[app.UserID]; ok {
		out.User = &u
	}
	if v, ok := r.visaTypes[app.VisaTypeID]; ok {
		out.VisaType = &v
	}
	if c, ok := r.countries[app.CountryID]; ok {
		out.Country = &c
	}
	return *out
}

func (r *memoryRepository) matches(app *domain.Application, filter dto.ApplicationFilter) bool {
	if filter.Status != "" && app.Status != filter.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	if term == "" {
		return true
	}
	u, ok := r.applicants[app.UserID]
	if !ok {
		return false
	}
	for _, field := range []string{u.FullName, u.Email, u.PassportNumber} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (r *memoryRepository) List(filter dto.ApplicationFilter) ([]domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Application, 0, len(r.apps))
	for _, app := range r.apps {
		if r.matches(app, filter) {
			out = append(out, r.hydrate(app, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) FindByID(id uint) (*domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.hydrate(app, true)
	return &out, nil
}

func (r *memoryRepository) decide(id uint, status domain.ApplicationStatus, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !app.Status.IsActionable() {
		return ErrNotUnderReview
	}
	now := r.now()
	app.Status = status
	app.DecisionDate = &now
	app.RejectionReason = reason
	app.UpdatedAt = now
	return nil
}

func (r *memoryRepository) Approve(id uint) error {
	return r.decide(id, domain.ApplicationStatusApproved, nil)
}

func (r *memoryRepository) Reject(id uint, reason string) error {
	return r.decide(id, domain.ApplicationStatusRejected, nullableReason(reason))
}

func (r *memoryRepository) findDocument(docID uint) (*domain.Application, *domain.Document) {
	for _, app := range r.apps {
		if doc := app.Document(docID); doc != nil {
			return app, doc
		}
	}
	return nil, nil
}

func (r *memoryRepository) FindDocument(docID uint) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, doc := r.findDocument(docID)
	if doc == nil {
		return nil, gorm.ErrRecordNotFound
	}
	out := *doc
	out.Content = append([]byte(nil), doc.Content...)
	return &out, nil
}

func (r *memoryRepository) ValidateDocument(docID uint, status domain.ValidationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, doc := r.findDocument(docID)
	if doc == nil {
		return gorm.ErrRecordNotFound
	}
	if !app.Status.IsActionable() {
		return ErrNotUnderReview
	}
	doc.ValidationStatus = status
	doc.UpdatedAt = r.now()
	return nil
}

func (r *memoryRepository) SummaryPDF(id uint) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !app.HasSummaryPDF() || len(app.SummaryPDF) == 0 {
		return nil, ErrNoSummaryPDF
	}
	return append([]byte(nil), app.SummaryPDF...), nil
}

func (r *memoryRepository) ListFeedbacks(filter dto.FeedbackFilter) ([]domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Feedback, 0, len(r.feedbacks))
	for _, f := range r.feedbacks {
		if filter.Rating > 0 && f.Rating != filter.Rating {
			continue
		}
		if filter.CountryID > 0 && f.CountryID != filter.CountryID {
			continue
		}
		if filter.VisaTypeID > 0 && f.VisaTypeID != filter.VisaTypeID {
			continue
		}
		if u, ok := r.applicants[f.UserID]; ok {
			f.User = &u
		}
		if c, ok := r.countries[f.CountryID]; ok {
			f.Country = &c
		}
		if v, ok := r.visaTypes[f.VisaTypeID]; ok {
			f.VisaType = &v
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) PageFeedbacks(filter dto.FeedbackFilter, page, perPage int) (dto.FeedbackPage, error) {
	all, err := r.ListFeedbacks(filter)
	if err != nil {
		return dto.FeedbackPage{}, err
	}

	out := pageBounds(page, perPage, int64(len(all)))
	start := (out.CurrentPage - 1) * out.PerPage
	end := start + out.PerPage
	if end > len(all) {
		end = len(all)
	}
	out.Data = append(out.Data, all[start:end]...)
	return out, nil
}

func (r *memoryRepository) DeleteFeedback(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.feedbacks {
		if r.feedbacks[i].ID == id {
			r.feedbacks = append(r.feedbacks[:i], r.feedbacks[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
