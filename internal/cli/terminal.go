package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/pkg/utils"
	"github.com/fatih/color"
	"github.com/pkg/browser"
)

// cancelWord aborts a text prompt; an empty line is a valid (empty) answer.
const cancelWord = "/cancel"

// lineReader reads whole lines with cancellation. One goroutine feeds lines so
// an abandoned read never steals the next answer.
type lineReader struct {
	once  sync.Once
	src   *bufio.Reader
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{src: bufio.NewReader(r), lines: make(chan lineResult)}
}

func (l *lineReader) start() {
	go func() {
		for {
			s, err := l.src.ReadString('\n')
			if s != "" || err == nil {
				l.lines <- lineResult{text: strings.TrimRight(s, "\r\n")}
			}
			if err != nil {
				l.lines <- lineResult{err: err}
				close(l.lines)
				return
			}
		}
	}()
}

// ReadLine returns io.EOF once input is exhausted.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.once.Do(l.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}

// TerminalPrompter asks on the terminal. AssumeYes and Reason answer without reading.
type TerminalPrompter struct {
	In        *lineReader
	Out       io.Writer
	AssumeYes bool
	Reason    *string
}

func (p *TerminalPrompter) Confirm(ctx context.Context, d dto.Dialog) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}
	fmt.Fprintf(p.Out, "%s\n%s\n%s? [y/N]: ", color.New(color.Bold).Sprint(d.Title), d.Text, d.ConfirmLabel)
	line, err := p.In.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *TerminalPrompter) PromptText(ctx context.Context, d dto.Dialog) (string, bool, error) {
	if p.Reason != nil {
		return *p.Reason, true, nil
	}
	fmt.Fprintf(p.Out, "%s\n%s (%s, %s to abort)\n%s: ",
		color.New(color.Bold).Sprint(d.Title), d.InputLabel, d.Placeholder, cancelWord, d.ConfirmLabel)
	line, err := p.In.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(line) == cancelWord {
		return "", false, nil
	}
	return strings.TrimSpace(line), true, nil
}

// TerminalNotifier prints notifications; safe for use from background fetches.
type TerminalNotifier struct {
	mu  sync.Mutex
	Out io.Writer
}

func (n *TerminalNotifier) Success(title, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.Out, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint(title), text)
}

func (n *TerminalNotifier) Error(title, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.Out, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint(title), text)
}

// listNavigator records that a detail view asked to return to the list.
type listNavigator struct {
	mu        sync.Mutex
	requested bool
}

func (n *listNavigator) ToApplicationList() {
	n.mu.Lock()
	n.requested = true
	n.mu.Unlock()
}

func (n *listNavigator) take() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	r := n.requested
	n.requested = false
	return r
}

// BrowserOpener opens handles in the system viewer; with Disabled it only prints the URL.
type BrowserOpener struct {
	Out      io.Writer
	Disabled bool
}

func (o BrowserOpener) Open(url string) error {
	fmt.Fprintf(o.Out, "preview: %s\n", url)
	if o.Disabled {
		return nil
	}
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}

// DirSink saves downloads into Dir, never overwriting an existing file.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name := utils.SafeFilename(filename)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		path := filepath.Join(s.Dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			_ = os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return path, nil
	}
}

func toneColor(t domain.Tone) *color.Color {
	switch t {
	case domain.ToneSuccess:
		return color.New(color.FgGreen)
	case domain.ToneDanger:
		return color.New(color.FgRed)
	case domain.ToneInfo:
		return color.New(color.FgCyan)
	case domain.ToneWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

func statusBadge(s domain.ApplicationStatus) string {
	return toneColor(s.Tone()).Sprint(s.Display())
}

func validationBadge(s domain.ValidationStatus) string {
	return toneColor(s.Tone()).Sprint(s.Display())
}
