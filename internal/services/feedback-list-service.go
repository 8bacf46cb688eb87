package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/SundayYogurt/visa_admin/internal/clients/adminapi"
	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
)

type FeedbackView struct {
	Rows     []domain.Feedback
	Filter   dto.FeedbackFilter
	Page     int
	LastPage int
	Total    int64
	Loading  bool
	Err      error
}

// FeedbackListService pages through feedback on the server; unlike the
// application list, every page change is a request.
type FeedbackListService struct {
	api      interfaces.FeedbackAPI
	prompter interfaces.Prompter
	notifier interfaces.Notifier
	log      *slog.Logger

	life     viewLifetime
	inflight *InFlight

	mu         sync.Mutex
	filter     dto.FeedbackFilter
	rows       []domain.Feedback
	page       int
	lastPage   int
	total      int64
	loading    bool
	lastErr    error
	generation uint64
}

func NewFeedbackListService(
	api interfaces.FeedbackAPI,
	prompter interfaces.Prompter,
	notifier interfaces.Notifier,
	log *slog.Logger,
) *FeedbackListService {
	if log == nil {
		log = slog.Default()
	}
	return &FeedbackListService{
		api:      api,
		prompter: prompter,
		notifier: notifier,
		log:      log,
		life:     newViewLifetime(),
		inflight: NewInFlight(),
		page:     1,
		lastPage: 1,
	}
}

func (s *FeedbackListService) Load(ctx context.Context) error {
	return s.fetch(ctx)
}

// SetFilter starts again from the first page.
func (s *FeedbackListService) SetFilter(ctx context.Context, filter dto.FeedbackFilter) error {
	if err := helper.ValidateStruct(filter); err != nil {
		return errors.New(helper.FormatValidationErrors(err))
	}
	s.mu.Lock()
	s.filter = filter
	s.page = 1
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetPage fetches page, clamped to the last page the server reported.
func (s *FeedbackListService) SetPage(ctx context.Context, page int) error {
	s.mu.Lock()
	s.page = ClampPage(page, s.lastPage)
	s.mu.Unlock()
	return s.fetch(ctx)
}

func (s *FeedbackListService) NextPage(ctx context.Context) error {
	s.mu.Lock()
	p := s.page + 1
	s.mu.Unlock()
	return s.SetPage(ctx, p)
}

func (s *FeedbackListService) PrevPage(ctx context.Context) error {
	s.mu.Lock()
	p := s.page - 1
	s.mu.Unlock()
	return s.SetPage(ctx, p)
}

func (s *FeedbackListService) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	filter, page := s.filter, s.page
	s.loading = true
	s.mu.Unlock()

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	res, err := s.api.ListFeedbacks(ctx, filter, page)

	s.mu.Lock()
	if !s.life.alive() || gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("dropping stale feedback page", "generation", gen)
		return err
	}
	s.loading = false
	if err != nil {
		s.rows = nil
		s.total = 0
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error("fetch feedbacks", "page", page, "rating", filter.Rating, "err", err)
		s.notifier.Error("Error!", "Failed to load feedbacks")
		return err
	}
	s.rows = res.Data
	s.total = res.Total
	s.lastErr = nil
	s.lastPage = max(res.LastPage, 1)
	s.page = ClampPage(res.CurrentPage, s.lastPage)
	s.mu.Unlock()
	return nil
}

func (s *FeedbackListService) View() FeedbackView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FeedbackView{
		Rows:     append([]domain.Feedback(nil), s.rows...),
		Filter:   s.filter,
		Page:     s.page,
		LastPage: s.lastPage,
		Total:    s.total,
		Loading:  s.loading,
		Err:      s.lastErr,
	}
}

// Delete confirms, deletes on the server and refetches the current page.
// A declined confirmation sends nothing.
func (s *FeedbackListService) Delete(ctx context.Context, id uint) error {
	target := feedbackTarget(id)
	if !s.inflight.Acquire(target) {
		return ErrBusy
	}
	defer s.inflight.Release(target)

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	confirmed, err := s.prompter.Confirm(ctx, deleteFeedbackDialog)
	if err != nil || !confirmed {
		return err
	}

	if err := s.api.DeleteFeedback(ctx, id); err != nil {
		s.log.Warn("delete feedback", "feedback_id", id, "err", err)
		if s.life.alive() {
			s.notifier.Error("Error!", adminapi.ErrorMessage(err, "Failed to delete feedback"))
		}
		return err
	}
	if !s.life.alive() {
		return nil
	}

	s.notifier.Success("Deleted!", "Feedback has been deleted.")
	if err := s.fetch(ctx); err != nil {
		s.log.Warn("refetch after delete", "feedback_id", id, "err", err)
	}
	return nil
}

// Close cancels outstanding requests; results arriving afterwards are discarded.
func (s *FeedbackListService) Close() {
	s.life.dispose()
}

var deleteFeedbackDialog = dto.Dialog{
	Title:        "Delete Feedback?",
	Text:         "This action cannot be undone!",
	ConfirmLabel: "Delete",
}
