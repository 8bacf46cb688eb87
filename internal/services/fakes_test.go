package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/SundayYogurt/visa_admin/internal/clients/adminapi"
	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/pkg/blobstore"
)

var errNetwork = errors.New("network down")

type fakeAPI struct {
	mu sync.Mutex

	apps    []domain.Application
	listErr error
	getErr  error

	approveErr  error
	rejectErr   error
	validateErr error

	listCalls    []dto.ApplicationFilter
	approveCalls []uint
	rejectCalls  []string
	validations  []string

	// keyed by document id; a channel blocks the fetch until it yields
	docGates map[uint]chan error
	docBody  []byte
	docType  string
	pdfErr   error
	pdfCalls int
	feedback dto.FeedbackFilter

	feedbacks        []domain.Feedback
	feedbackErr      error
	deleteErr        error
	feedbackCalls    []int
	deleteCalls      []uint
	feedbackPageSize int
}

func newFakeAPI(apps ...domain.Application) *fakeAPI {
	return &fakeAPI{apps: apps, docGates: map[uint]chan error{}, docBody: []byte("%PDF-1.4"), docType: "image/png"}
}

func (f *fakeAPI) ListApplications(ctx context.Context, filter dto.ApplicationFilter) ([]domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Application, len(f.apps))
	copy(out, f.apps)
	return out, nil
}

func (f *fakeAPI) GetApplication(ctx context.Context, id uint) (*domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.apps {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return nil, fmt.Errorf("application %d: %w", id, adminapi.ErrNotFound)
}

func (f *fakeAPI) ApproveApplication(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approveCalls = append(f.approveCalls, id)
	return f.approveErr
}

func (f *fakeAPI) RejectApplication(ctx context.Context, id uint, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectCalls = append(f.rejectCalls, reason)
	return f.rejectErr
}

func (f *fakeAPI) ValidateDocument(ctx context.Context, docID uint, status domain.ValidationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validations = append(f.validations, fmt.Sprintf("%d:%s", docID, status))
	return f.validateErr
}

func (f *fakeAPI) gate(docID uint) chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan error, 1)
	f.docGates[docID] = ch
	return ch
}

func (f *fakeAPI) PreviewDocument(ctx context.Context, docID uint) (dto.BinaryPayload, error) {
	f.mu.Lock()
	ch := f.docGates[docID]
	body, ct := f.docBody, f.docType
	f.mu.Unlock()
	if ch != nil {
		select {
		case err := <-ch:
			if err != nil {
				return dto.BinaryPayload{}, err
			}
		case <-ctx.Done():
			return dto.BinaryPayload{}, ctx.Err()
		}
	}
	return dto.BinaryPayload{Data: body, ContentType: ct}, nil
}

func (f *fakeAPI) PreviewApplicationPDF(ctx context.Context, id uint) (dto.BinaryPayload, error) {
	return f.pdf()
}

func (f *fakeAPI) DownloadApplicationPDF(ctx context.Context, id uint) (dto.BinaryPayload, error) {
	return f.pdf()
}

func (f *fakeAPI) pdf() (dto.BinaryPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfCalls++
	if f.pdfErr != nil {
		return dto.BinaryPayload{}, f.pdfErr
	}
	return dto.BinaryPayload{Data: []byte("%PDF-1.4 summary"), ContentType: "application/octet-stream"}, nil
}

func (f *fakeAPI) ExportFeedbacks(ctx context.Context, filter dto.FeedbackFilter) (dto.BinaryPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = filter
	return dto.BinaryPayload{Data: []byte("id,rating\n1,5\n"), ContentType: "text/csv"}, nil
}

// ListFeedbacks pages the rating-filtered feedbacks feedbackPageSize at a time.
func (f *fakeAPI) ListFeedbacks(ctx context.Context, filter dto.FeedbackFilter, page int) (dto.FeedbackPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbackCalls = append(f.feedbackCalls, page)
	f.feedback = filter
	if f.feedbackErr != nil {
		return dto.FeedbackPage{}, f.feedbackErr
	}

	var rows []domain.Feedback
	for _, fb := range f.feedbacks {
		if filter.Rating == 0 || fb.Rating == filter.Rating {
			rows = append(rows, fb)
		}
	}
	per := f.feedbackPageSize
	if per == 0 {
		per = dto.FeedbackPerPage
	}
	last := max(TotalPages(len(rows), per), 1)
	page = ClampPage(page, last)
	start, end := PageWindow(page, per, len(rows))
	return dto.FeedbackPage{
		Data:        append([]domain.Feedback{}, rows[start:end]...),
		CurrentPage: page,
		LastPage:    last,
		PerPage:     per,
		Total:       int64(len(rows)),
	}, nil
}

func (f *fakeAPI) DeleteFeedback(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, fb := range f.feedbacks {
		if fb.ID == id {
			f.feedbacks = append(f.feedbacks[:i], f.feedbacks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("feedback %d: %w", id, adminapi.ErrNotFound)
}

type fakePrompter struct {
	mu        sync.Mutex
	confirm   bool
	reason    string
	submitted bool
	dialogs   []dto.Dialog

	// when set, every prompt signals entered and then waits for release
	entered chan struct{}
	release chan struct{}
}

// hold makes the next prompts block until release is closed.
func (p *fakePrompter) hold() (entered <-chan struct{}, release chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entered = make(chan struct{}, 8)
	p.release = make(chan struct{})
	return p.entered, p.release
}

func (p *fakePrompter) record(d dto.Dialog) {
	p.mu.Lock()
	p.dialogs = append(p.dialogs, d)
	entered, release := p.entered, p.release
	p.mu.Unlock()
	if release != nil {
		entered <- struct{}{}
		<-release
	}
}

func (p *fakePrompter) Confirm(ctx context.Context, d dto.Dialog) (bool, error) {
	p.record(d)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirm, nil
}

func (p *fakePrompter) PromptText(ctx context.Context, d dto.Dialog) (string, bool, error) {
	p.record(d)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason, p.submitted, nil
}

type note struct {
	kind, title, text string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Success(title, text string) {
	n.mu.Lock()
	n.notes = append(n.notes, note{"success", title, text})
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(title, text string) {
	n.mu.Lock()
	n.notes = append(n.notes, note{"error", title, text})
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note(nil), n.notes...)
}

type countingNavigator struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNavigator) ToApplicationList() {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *recordingOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return o.err
}

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *memorySink) Save(filename string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[filename] = b
	return "/downloads/" + filename, nil
}

type recordingProducer struct {
	mu   sync.Mutex
	keys []string
	vals [][]byte
}

func (p *recordingProducer) PublishMessage(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, string(key))
	p.vals = append(p.vals, value)
	return nil
}

type fixture struct {
	api       *fakeAPI
	prompter  *fakePrompter
	notifier  *recordingNotifier
	navigator *countingNavigator
	opener    *recordingOpener
	sink      *memorySink
	blobs     *blobstore.Store
	viewer    *DocumentViewer
}

func newFixture(apps ...domain.Application) *fixture {
	f := &fixture{
		api:       newFakeAPI(apps...),
		prompter:  &fakePrompter{},
		notifier:  &recordingNotifier{},
		navigator: &countingNavigator{},
		opener:    &recordingOpener{},
		sink:      &memorySink{},
		blobs:     blobstore.New(),
	}
	f.viewer = NewDocumentViewer(f.blobs, f.opener, f.sink, f.notifier, nil)
	return f
}

func (f *fixture) list() *ApplicationListService {
	return NewApplicationListService(f.api, f.prompter, f.notifier, nil)
}

func (f *fixture) detail(id uint) *ApplicationDetailService {
	return NewApplicationDetailService(id, DetailDeps{
		Applications: f.api,
		Documents:    f.api,
		Viewer:       f.viewer,
		Prompter:     f.prompter,
		Notifier:     f.notifier,
		Navigator:    f.navigator,
	})
}

func app(id uint, status domain.ApplicationStatus) domain.Application {
	return domain.Application{ID: id, Status: status}
}

func strPtr(s string) *string { return &s }
