package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SundayYogurt/visa_admin/internal/clients/adminapi"
	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
	"github.com/SundayYogurt/visa_admin/pkg/blobstore"
)

var (
	ErrNotLoaded           = errors.New("application not loaded")
	ErrNoSummaryPDF        = errors.New("application has no generated PDF")
	ErrInvalidValidation   = errors.New("validation status must be valid or invalid")
	ErrDetailServiceClosed = errors.New("application view closed")
)

// DetailDeps are the collaborators of one detail view.
type DetailDeps struct {
	Applications interfaces.ApplicationAPI
	Documents    interfaces.DocumentAPI
	Viewer       *DocumentViewer
	Prompter     interfaces.Prompter
	Notifier     interfaces.Notifier
	Navigator    interfaces.Navigator
	Log          *slog.Logger
}

type DetailState struct {
	Application *domain.Application
	Loading     bool
	NotFound    bool
	Err         error
	InFlight    []string
}

// ApplicationDetailService drives one application through review. Remote
// mutations always complete before local state moves.
type ApplicationDetailService struct {
	id   uint
	deps DetailDeps
	log  *slog.Logger

	life     viewLifetime
	inflight *InFlight
	wg       sync.WaitGroup

	mu       sync.Mutex
	app      *domain.Application
	loading  bool
	notFound bool
	lastErr  error
}

func NewApplicationDetailService(id uint, deps DetailDeps) *ApplicationDetailService {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &ApplicationDetailService{
		id:       id,
		deps:     deps,
		log:      log.With("application_id", id),
		life:     newViewLifetime(),
		inflight: NewInFlight(),
	}
}

func (s *ApplicationDetailService) ID() uint { return s.id }

// Load fetches the full record. A 404 yields the not-found state without a notification.
func (s *ApplicationDetailService) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	app, err := s.deps.Applications.GetApplication(ctx, s.id)
	if !s.life.alive() {
		return ErrDetailServiceClosed
	}

	s.mu.Lock()
	s.loading = false
	switch {
	case errors.Is(err, adminapi.ErrNotFound):
		s.app, s.notFound, s.lastErr = nil, true, err
		s.mu.Unlock()
		s.log.Info("application not found")
		return err
	case err != nil:
		s.app, s.notFound, s.lastErr = nil, false, err
		s.mu.Unlock()
		s.log.Error("fetch application", "err", err)
		s.deps.Notifier.Error("Error!", "Failed to load application details")
		return err
	}
	s.app, s.notFound, s.lastErr = app, false, nil
	s.mu.Unlock()
	return nil
}

func (s *ApplicationDetailService) State() DetailState {
	s.mu.Lock()
	st := DetailState{
		Application: s.app.Clone(),
		Loading:     s.loading,
		NotFound:    s.notFound,
		Err:         s.lastErr,
	}
	s.mu.Unlock()
	st.InFlight = s.inflight.Targets()
	return st
}

// IsLoading reports whether target (see DocumentTarget and the Target constants) is in flight.
func (s *ApplicationDetailService) IsLoading(target string) bool {
	return s.inflight.Active(target)
}

func (s *ApplicationDetailService) snapshot() *domain.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app.Clone()
}

// beginDecision checks the transition is legal and claims the decision target.
func (s *ApplicationDetailService) beginDecision() (func(), error) {
	if !s.life.alive() {
		return nil, ErrDetailServiceClosed
	}
	app := s.snapshot()
	if app == nil {
		return nil, ErrNotLoaded
	}
	if !app.CanDecide() {
		return nil, domain.ErrNotActionable
	}
	if !s.inflight.Acquire(TargetDecision) {
		return nil, ErrBusy
	}
	return func() { s.inflight.Release(TargetDecision) }, nil
}

func (s *ApplicationDetailService) setStatus(status domain.ApplicationStatus) {
	s.mu.Lock()
	if s.app != nil {
		s.app.Status = status
	}
	s.mu.Unlock()
}

func (s *ApplicationDetailService) Approve(ctx context.Context) error {
	release, err := s.beginDecision()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	confirmed, err := s.deps.Prompter.Confirm(ctx, approveDialog)
	if err != nil || !confirmed {
		return err
	}

	if err := s.deps.Applications.ApproveApplication(ctx, s.id); err != nil {
		s.log.Warn("approve application", "err", err)
		if s.life.alive() {
			s.deps.Notifier.Error("Error!", adminapi.ErrorMessage(err, "Failed to approve application"))
		}
		return err
	}
	if !s.life.alive() {
		return nil
	}

	s.setStatus(domain.ApplicationStatusApproved)
	s.deps.Notifier.Success("Approved!", "Application has been approved successfully")
	s.navigateBack()
	return nil
}

// Reject prompts for an optional reason; cancel aborts with no request.
func (s *ApplicationDetailService) Reject(ctx context.Context) error {
	release, err := s.beginDecision()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	reason, submitted, err := s.deps.Prompter.PromptText(ctx, rejectDialog)
	if err != nil || !submitted {
		return err
	}

	if err := s.deps.Applications.RejectApplication(ctx, s.id, reason); err != nil {
		s.log.Warn("reject application", "err", err)
		if s.life.alive() {
			s.deps.Notifier.Error("Error!", adminapi.ErrorMessage(err, "Failed to reject application"))
		}
		return err
	}
	if !s.life.alive() {
		return nil
	}

	s.setStatus(domain.ApplicationStatusRejected)
	s.deps.Notifier.Success("Rejected!", "Application has been rejected")
	s.navigateBack()
	return nil
}

func (s *ApplicationDetailService) navigateBack() {
	if s.deps.Navigator != nil {
		s.deps.Navigator.ToApplicationList()
	}
}

// SetDocumentValidation marks one document valid or invalid and patches only that
// document locally. Unknown documents are ignored.
func (s *ApplicationDetailService) SetDocumentValidation(ctx context.Context, docID uint, status domain.ValidationStatus) error {
	if !status.IsDecision() {
		return ErrInvalidValidation
	}
	if !s.life.alive() {
		return ErrDetailServiceClosed
	}
	app := s.snapshot()
	if app == nil {
		return ErrNotLoaded
	}
	if !app.CanValidateDocuments() {
		return domain.ErrNotActionable
	}
	if app.Document(docID) == nil {
		s.log.Debug("validation ignored, unknown document", "document_id", docID)
		return nil
	}

	target := validationTarget(docID)
	if !s.inflight.Acquire(target) {
		return ErrBusy
	}
	defer s.inflight.Release(target)

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	if err := s.deps.Applications.ValidateDocument(ctx, docID, status); err != nil {
		s.log.Warn("validate document", "document_id", docID, "err", err)
		if s.life.alive() {
			s.deps.Notifier.Error("Error!", adminapi.ErrorMessage(err, "Failed to update document status"))
		}
		return err
	}
	if !s.life.alive() {
		return nil
	}

	s.mu.Lock()
	s.app.PatchDocumentValidation(docID, status)
	s.mu.Unlock()

	s.deps.Notifier.Success("Success!", fmt.Sprintf("Document marked as %s", status))
	return nil
}

// beginBinary claims target for a document or PDF fetch.
func (s *ApplicationDetailService) beginBinary(target string) (func(), error) {
	if !s.life.alive() {
		return nil, ErrDetailServiceClosed
	}
	if !s.inflight.Acquire(target) {
		return nil, ErrBusy
	}
	return func() { s.inflight.Release(target) }, nil
}

func (s *ApplicationDetailService) summaryPDFReady() error {
	app := s.snapshot()
	if app == nil {
		return ErrNotLoaded
	}
	if !app.HasSummaryPDF() {
		return ErrNoSummaryPDF
	}
	return nil
}

// ViewDocument previews one of the loaded application's documents.
func (s *ApplicationDetailService) ViewDocument(ctx context.Context, docID uint) (blobstore.Handle, error) {
	if s.snapshot().Document(docID) == nil {
		s.log.Debug("preview ignored, unknown document", "document_id", docID)
		return blobstore.Handle{}, nil
	}
	release, err := s.beginBinary(DocumentTarget(docID))
	if err != nil {
		return blobstore.Handle{}, err
	}
	defer release()
	return s.viewDocument(ctx, docID)
}

func (s *ApplicationDetailService) viewDocument(ctx context.Context, docID uint) (blobstore.Handle, error) {
	ctx, cancel := s.life.bind(ctx)
	defer cancel()
	fetch := func(ctx context.Context) (dto.BinaryPayload, error) {
		return s.deps.Documents.PreviewDocument(ctx, docID)
	}
	return s.deps.Viewer.Preview(ctx, fetch, ContentTypeBinary, "Failed to load document")
}

func (s *ApplicationDetailService) PreviewPDF(ctx context.Context) (blobstore.Handle, error) {
	if err := s.summaryPDFReady(); err != nil {
		return blobstore.Handle{}, err
	}
	release, err := s.beginBinary(TargetPDFPreview)
	if err != nil {
		return blobstore.Handle{}, err
	}
	defer release()
	return s.previewPDF(ctx)
}

func (s *ApplicationDetailService) previewPDF(ctx context.Context) (blobstore.Handle, error) {
	ctx, cancel := s.life.bind(ctx)
	defer cancel()
	fetch := forceContentType(func(ctx context.Context) (dto.BinaryPayload, error) {
		return s.deps.Documents.PreviewApplicationPDF(ctx, s.id)
	}, ContentTypePDF)
	return s.deps.Viewer.Preview(ctx, fetch, ContentTypePDF, "Failed to preview PDF")
}

// DownloadPDF saves the generated summary as application_<id>.pdf.
func (s *ApplicationDetailService) DownloadPDF(ctx context.Context) (string, error) {
	if err := s.summaryPDFReady(); err != nil {
		return "", err
	}
	release, err := s.beginBinary(TargetPDFDownload)
	if err != nil {
		return "", err
	}
	defer release()
	return s.downloadPDF(ctx)
}

func (s *ApplicationDetailService) downloadPDF(ctx context.Context) (string, error) {
	ctx, cancel := s.life.bind(ctx)
	defer cancel()
	fetch := func(ctx context.Context) (dto.BinaryPayload, error) {
		return s.deps.Documents.DownloadApplicationPDF(ctx, s.id)
	}
	return s.deps.Viewer.Download(ctx, fetch, ContentTypePDF, PDFFilename(s.id), "Failed to download PDF")
}

func PDFFilename(id uint) string {
	return fmt.Sprintf("application_%d.pdf", id)
}

// StartViewDocument claims the target immediately and fetches in the background.
func (s *ApplicationDetailService) StartViewDocument(docID uint) error {
	if s.snapshot().Document(docID) == nil {
		return nil
	}
	release, err := s.beginBinary(DocumentTarget(docID))
	if err != nil {
		return err
	}
	s.spawn(func(ctx context.Context) {
		defer release()
		_, _ = s.viewDocument(ctx, docID)
	})
	return nil
}

func (s *ApplicationDetailService) StartPreviewPDF() error {
	if err := s.summaryPDFReady(); err != nil {
		return err
	}
	release, err := s.beginBinary(TargetPDFPreview)
	if err != nil {
		return err
	}
	s.spawn(func(ctx context.Context) {
		defer release()
		_, _ = s.previewPDF(ctx)
	})
	return nil
}

func (s *ApplicationDetailService) StartDownloadPDF() error {
	if err := s.summaryPDFReady(); err != nil {
		return err
	}
	release, err := s.beginBinary(TargetPDFDownload)
	if err != nil {
		return err
	}
	s.spawn(func(ctx context.Context) {
		defer release()
		_, _ = s.downloadPDF(ctx)
	})
	return nil
}

func (s *ApplicationDetailService) spawn(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.life.ctx)
	}()
}

// Wait blocks until background fetches started by Start* have finished.
func (s *ApplicationDetailService) Wait() {
	s.wg.Wait()
}

// Close cancels outstanding requests, waits for background work and revokes the
// last preview handle.
func (s *ApplicationDetailService) Close() {
	s.life.dispose()
	s.wg.Wait()
	if s.deps.Viewer != nil {
		s.deps.Viewer.Close()
	}
}
