package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SundayYogurt/visa_admin/internal/clients/adminapi"
	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
)

type ListRow struct {
	Index       int // 1-based across all pages
	Application domain.Application
	CanDecide   bool
}

type ListView struct {
	Rows       []ListRow
	Filter     dto.ApplicationFilter
	Page       int
	TotalPages int
	Total      int
	First      int
	Last       int
	Loading    bool
	Err        error
}

// ApplicationListService holds the server-filtered application collection and
// pages through it locally.
type ApplicationListService struct {
	api      interfaces.ApplicationAPI
	prompter interfaces.Prompter
	notifier interfaces.Notifier
	log      *slog.Logger
	pageSize int

	life     viewLifetime
	inflight *InFlight

	mu         sync.Mutex
	filter     dto.ApplicationFilter
	apps       []domain.Application
	page       int
	loading    bool
	lastErr    error
	generation uint64
}

func NewApplicationListService(
	api interfaces.ApplicationAPI,
	prompter interfaces.Prompter,
	notifier interfaces.Notifier,
	log *slog.Logger,
) *ApplicationListService {
	if log == nil {
		log = slog.Default()
	}
	return &ApplicationListService{
		api:      api,
		prompter: prompter,
		notifier: notifier,
		log:      log,
		pageSize: DefaultPageSize,
		life:     newViewLifetime(),
		inflight: NewInFlight(),
		page:     1,
	}
}

func (s *ApplicationListService) Load(ctx context.Context) error {
	return s.fetch(ctx)
}

func (s *ApplicationListService) SetSearch(ctx context.Context, term string) error {
	s.mu.Lock()
	s.filter.Search = term
	s.page = 1
	s.mu.Unlock()
	return s.fetch(ctx)
}

func (s *ApplicationListService) SetStatusFilter(ctx context.Context, status domain.ApplicationStatus) error {
	s.mu.Lock()
	s.filter.Status = status
	s.page = 1
	s.mu.Unlock()
	return s.fetch(ctx)
}

func (s *ApplicationListService) SetFilter(ctx context.Context, filter dto.ApplicationFilter) error {
	s.mu.Lock()
	s.filter = filter
	s.page = 1
	s.mu.Unlock()
	return s.fetch(ctx)
}

// fetch replaces the collection. Only the newest fetch may apply its result.
func (s *ApplicationListService) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	filter := s.filter
	s.loading = true
	s.mu.Unlock()

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	apps, err := s.api.ListApplications(ctx, filter)

	s.mu.Lock()
	if !s.life.alive() || gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("dropping stale application list", "generation", gen)
		return err
	}
	s.loading = false
	if err != nil {
		s.apps = nil
		s.page = 1
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error("fetch applications", "search", filter.Search, "status", filter.Status, "err", err)
		s.notifier.Error("Error!", "Failed to load applications")
		return err
	}
	s.apps = apps
	s.lastErr = nil
	s.page = ClampPage(s.page, TotalPages(len(apps), s.pageSize))
	s.mu.Unlock()
	return nil
}

func (s *ApplicationListService) SetPage(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(page, TotalPages(len(s.apps), s.pageSize))
	return s.page
}

func (s *ApplicationListService) NextPage() int {
	s.mu.Lock()
	p := s.page + 1
	s.mu.Unlock()
	return s.SetPage(p)
}

func (s *ApplicationListService) PrevPage() int {
	s.mu.Lock()
	p := s.page - 1
	s.mu.Unlock()
	return s.SetPage(p)
}

func (s *ApplicationListService) View() ListView {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.apps)
	start, end := PageWindow(s.page, s.pageSize, total)
	rows := make([]ListRow, 0, end-start)
	for i := start; i < end; i++ {
		app := s.apps[i]
		rows = append(rows, ListRow{
			Index:       i + 1,
			Application: app,
			CanDecide:   app.Status.IsActionable(),
		})
	}

	v := ListView{
		Rows:       rows,
		Filter:     s.filter,
		Page:       s.page,
		TotalPages: TotalPages(total, s.pageSize),
		Total:      total,
		Loading:    s.loading,
		Err:        s.lastErr,
	}
	if v.TotalPages == 0 {
		v.TotalPages = 1
	}
	if end > start {
		v.First, v.Last = start+1, end
	}
	return v
}

func (s *ApplicationListService) find(id uint) (domain.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.ID == id {
			return app, true
		}
	}
	return domain.Application{}, false
}

// patchStatus applies a confirmed decision to the local row only.
func (s *ApplicationListService) patchStatus(id uint, status domain.ApplicationStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID == id {
			s.apps[i].Status = status
			return true
		}
	}
	return false
}

// Approve confirms with the user, then approves on the server and patches the row.
// An id that is no longer listed is a silent no-op.
func (s *ApplicationListService) Approve(ctx context.Context, id uint) error {
	app, ok := s.find(id)
	if !ok {
		s.log.Debug("approve ignored, row not present", "application_id", id)
		return nil
	}
	if !app.CanDecide() {
		return domain.ErrNotActionable
	}

	target := applicationTarget(id)
	if !s.inflight.Acquire(target) {
		return ErrBusy
	}
	defer s.inflight.Release(target)

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	confirmed, err := s.prompter.Confirm(ctx, approveDialog)
	if err != nil || !confirmed {
		return err
	}

	if err := s.api.ApproveApplication(ctx, id); err != nil {
		s.log.Warn("approve application", "application_id", id, "err", err)
		if s.life.alive() {
			s.notifier.Error("Error!", adminapi.ErrorMessage(err, "Failed to approve application"))
		}
		return err
	}
	if !s.life.alive() {
		return nil
	}

	s.patchStatus(id, domain.ApplicationStatusApproved)
	s.notifier.Success("Approved!", "Application has been approved.")
	return nil
}

// Reject asks for an optional reason. Cancelling the prompt aborts without a request;
// an empty reason is still submitted.
func (s *ApplicationListService) Reject(ctx context.Context, id uint) error {
	app, ok := s.find(id)
	if !ok {
		s.log.Debug("reject ignored, row not present", "application_id", id)
		return nil
	}
	if !app.CanDecide() {
		return domain.ErrNotActionable
	}

	target := applicationTarget(id)
	if !s.inflight.Acquire(target) {
		return ErrBusy
	}
	defer s.inflight.Release(target)

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	reason, submitted, err := s.prompter.PromptText(ctx, rejectDialog)
	if err != nil || !submitted {
		return err
	}

	if err := s.api.RejectApplication(ctx, id, reason); err != nil {
		s.log.Warn("reject application", "application_id", id, "err", err)
		if s.life.alive() {
			s.notifier.Error("Error!", adminapi.ErrorMessage(err, "Failed to reject application"))
		}
		return err
	}
	if !s.life.alive() {
		return nil
	}

	s.patchStatus(id, domain.ApplicationStatusRejected)
	s.notifier.Success("Rejected!", "Application has been rejected.")
	return nil
}

// Close cancels outstanding requests; results arriving afterwards are discarded.
func (s *ApplicationListService) Close() {
	s.life.dispose()
}

var (
	approveDialog = dto.Dialog{
		Title:        "Approve Application?",
		Text:         "Are you sure you want to approve this application?",
		ConfirmLabel: "Yes, approve",
	}
	rejectDialog = dto.Dialog{
		Title:        "Reject Application?",
		InputLabel:   "Rejection Reason (optional)",
		Placeholder:  "Type the reason for rejection...",
		ConfirmLabel: "Confirm Rejection",
	}
)
