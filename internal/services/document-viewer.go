package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
	"github.com/SundayYogurt/visa_admin/pkg/blobstore"
	"github.com/SundayYogurt/visa_admin/pkg/utils"
)

const (
	ContentTypePDF    = "application/pdf"
	ContentTypeCSV    = "text/csv"
	ContentTypeBinary = "application/octet-stream"
)

var ErrViewerClosed = errors.New("document viewer closed")

// FetchFunc performs one authenticated binary fetch.
type FetchFunc func(ctx context.Context) (dto.BinaryPayload, error)

// DocumentViewer turns authenticated binary fetches into local handles and
// either opens them (preview) or saves them (download).
type DocumentViewer struct {
	blobs    *blobstore.Store
	opener   interfaces.ResourceOpener
	sink     interfaces.DownloadSink
	notifier interfaces.Notifier
	log      *slog.Logger

	mu     sync.Mutex
	last   string
	closed bool
}

func NewDocumentViewer(
	blobs *blobstore.Store,
	opener interfaces.ResourceOpener,
	sink interfaces.DownloadSink,
	notifier interfaces.Notifier,
	log *slog.Logger,
) *DocumentViewer {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentViewer{
		blobs:    blobs,
		opener:   opener,
		sink:     sink,
		notifier: notifier,
		log:      log,
	}
}

// Preview fetches, wraps the bytes in a fresh handle and opens it. The previous
// preview handle is revoked first. assumedType is used when the server declares none.
func (v *DocumentViewer) Preview(ctx context.Context, fetch FetchFunc, assumedType, failureText string) (blobstore.Handle, error) {
	payload, err := fetch(ctx)
	if err != nil {
		v.fail(ctx, failureText, "preview fetch", err)
		return blobstore.Handle{}, err
	}

	contentType := payload.ContentType
	if contentType == "" {
		contentType = assumedType
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return blobstore.Handle{}, ErrViewerClosed
	}
	if v.last != "" {
		v.blobs.Revoke(v.last)
	}
	h := v.blobs.Create(payload.Data, contentType, "")
	v.last = h.ID
	v.mu.Unlock()

	if err := v.opener.Open(h.URL); err != nil {
		v.fail(ctx, failureText, "open preview", err)
		return h, fmt.Errorf("open preview: %w", err)
	}
	v.log.Debug("preview opened", "handle", h.ID, "bytes", h.Size, "content_type", h.ContentType)
	return h, nil
}

// Download fetches and hands the bytes to the sink under filename. The transient
// handle only lives for the duration of the save.
func (v *DocumentViewer) Download(ctx context.Context, fetch FetchFunc, contentType, filename, failureText string) (string, error) {
	payload, err := fetch(ctx)
	if err != nil {
		v.fail(ctx, failureText, "download fetch", err)
		return "", err
	}
	if contentType == "" {
		contentType = payload.ContentType
	}

	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return "", ErrViewerClosed
	}

	h := v.blobs.Create(payload.Data, contentType, utils.SafeFilename(filename))
	defer v.blobs.Revoke(h.ID)

	r, err := v.blobs.Reader(h.ID)
	if err != nil {
		v.fail(ctx, failureText, "download handle", err)
		return "", err
	}
	path, err := v.sink.Save(h.Filename, r)
	if err != nil {
		v.fail(ctx, failureText, "save download", err)
		return "", fmt.Errorf("save %s: %w", h.Filename, err)
	}
	v.log.Info("download saved", "path", path, "bytes", h.Size)
	return path, nil
}

// Close revokes the last preview handle; later previews fail with ErrViewerClosed.
func (v *DocumentViewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last != "" {
		v.blobs.Revoke(v.last)
		v.last = ""
	}
	v.closed = true
}

// fail reports to the user unless the owning view is already gone.
func (v *DocumentViewer) fail(ctx context.Context, failureText, stage string, err error) {
	v.log.Warn("document viewer failed", "stage", stage, "err", err)
	if ctx.Err() != nil {
		return
	}
	v.notifier.Error("Error!", failureText)
}

func forceContentType(fetch FetchFunc, contentType string) FetchFunc {
	return func(ctx context.Context) (dto.BinaryPayload, error) {
		p, err := fetch(ctx)
		if err != nil {
			return p, err
		}
		p.ContentType = contentType
		return p, nil
	}
}
