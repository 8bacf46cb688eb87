package interfaces

import (
	"context"
	"io"

	"github.com/SundayYogurt/visa_admin/internal/dto"
)

type Prompter interface {
	Confirm(ctx context.Context, d dto.Dialog) (bool, error)
	// PromptText returns submitted=false when the user cancelled; an empty value may still be submitted.
	PromptText(ctx context.Context, d dto.Dialog) (value string, submitted bool, err error)
}

type Notifier interface {
	Success(title, text string)
	Error(title, text string)
}

type Navigator interface {
	ToApplicationList()
}

// ResourceOpener shows a locally addressable resource in a new viewing context.
type ResourceOpener interface {
	Open(url string) error
}

// DownloadSink persists a download under filename and returns where it went.
type DownloadSink interface {
	Save(filename string, r io.Reader) (string, error)
}
