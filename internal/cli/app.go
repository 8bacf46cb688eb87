package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/SundayYogurt/visa_admin/config"
	"github.com/SundayYogurt/visa_admin/internal/clients/adminapi"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/SundayYogurt/visa_admin/internal/session"
	"github.com/SundayYogurt/visa_admin/pkg/blobstore"
)

// app holds the process-wide collaborators shared by every command.
type app struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer
	in  *lineReader

	assumeYes bool
	reason    *string
	noBrowser bool

	sessions *session.Manager
	client   *adminapi.Client
	notifier *TerminalNotifier

	blobs *blobstore.Store
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) init(cfg config.Config) error {
	a.cfg = cfg
	a.log = newLogger(os.Stderr, cfg.SlogLevel())

	sessions, err := session.NewManager(session.NewFileStore(cfg.SessionFile), a.log)
	if err != nil {
		return err
	}
	a.sessions = sessions

	a.client = adminapi.New(cfg.APIBaseURL, sessions, &http.Client{Timeout: cfg.HTTPTimeout},
		adminapi.WithMaxBinaryBytes(cfg.MaxDownloadBytes),
		adminapi.WithLogger(a.log),
	)
	a.notifier = &TerminalNotifier{Out: a.out}
	return nil
}

// ensureBlobs starts the loopback server that previews are opened from.
func (a *app) ensureBlobs() (*blobstore.Store, error) {
	if a.blobs != nil {
		return a.blobs, nil
	}
	store := blobstore.New()
	if err := store.Serve(a.cfg.BlobAddr); err != nil {
		return nil, fmt.Errorf("start preview server: %w", err)
	}
	a.blobs = store
	return store, nil
}

func (a *app) prompter() *TerminalPrompter {
	return &TerminalPrompter{In: a.in, Out: a.out, AssumeYes: a.assumeYes, Reason: a.reason}
}

func (a *app) viewer() (*services.DocumentViewer, error) {
	blobs, err := a.ensureBlobs()
	if err != nil {
		return nil, err
	}
	return services.NewDocumentViewer(blobs,
		BrowserOpener{Out: a.out, Disabled: a.noBrowser},
		DirSink{Dir: a.cfg.DownloadDir},
		a.notifier,
		a.log,
	), nil
}

func (a *app) listService() *services.ApplicationListService {
	return services.NewApplicationListService(a.client, a.prompter(), a.notifier, a.log)
}

func (a *app) feedbackService() *services.FeedbackListService {
	return services.NewFeedbackListService(a.client, a.prompter(), a.notifier, a.log)
}

func (a *app) detailService(id uint, nav *listNavigator) (*services.ApplicationDetailService, error) {
	viewer, err := a.viewer()
	if err != nil {
		return nil, err
	}
	return services.NewApplicationDetailService(id, services.DetailDeps{
		Applications: a.client,
		Documents:    a.client,
		Viewer:       viewer,
		Prompter:     a.prompter(),
		Notifier:     a.notifier,
		Navigator:    nav,
		Log:          a.log,
	}), nil
}

// requireSession warns early; requests still go out and the backend decides.
func (a *app) requireSession() {
	if a.sessions.AccessToken() == "" {
		a.notifier.Error("Warning:", "not logged in, run `visa-admin login` first")
	}
}

// waitForPreview keeps the preview server up until the user is done with it.
func (a *app) waitForPreview(ctx context.Context) {
	if a.blobs == nil || a.blobs.Len() == 0 {
		return
	}
	fmt.Fprintln(a.out, "Press Enter when you are done viewing.")
	_, _ = a.in.ReadLine(ctx)
}

func (a *app) close() {
	if a.blobs != nil {
		_ = a.blobs.Close()
	}
}
