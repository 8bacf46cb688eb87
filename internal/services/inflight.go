package services

import (
	"errors"
	"sort"
	"strconv"
	"sync"
)

const (
	TargetPDFPreview  = "pdf-preview"
	TargetPDFDownload = "pdf-download"
	TargetDecision    = "decision"
)

var ErrBusy = errors.New("action already in progress")

func DocumentTarget(docID uint) string {
	return "document:" + strconv.FormatUint(uint64(docID), 10)
}

func validationTarget(docID uint) string {
	return "validate:" + strconv.FormatUint(uint64(docID), 10)
}

func applicationTarget(id uint) string {
	return "application:" + strconv.FormatUint(uint64(id), 10)
}

func feedbackTarget(id uint) string {
	return "feedback:" + strconv.FormatUint(uint64(id), 10)
}

// InFlight tracks which targets have a request outstanding. Each target is
// independent: releasing one never clears another.
type InFlight struct {
	mu      sync.Mutex
	targets map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{targets: make(map[string]struct{})}
}

// Acquire marks target busy and reports false if it already was.
func (f *InFlight) Acquire(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.targets[target]; ok {
		return false
	}
	f.targets[target] = struct{}{}
	return true
}

func (f *InFlight) Release(target string) {
	f.mu.Lock()
	delete(f.targets, target)
	f.mu.Unlock()
}

func (f *InFlight) Active(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.targets[target]
	return ok
}

func (f *InFlight) Targets() []string {
	f.mu.Lock()
	out := make([]string, 0, len(f.targets))
	for t := range f.targets {
		out = append(out, t)
	}
	f.mu.Unlock()
	sort.Strings(out)
	return out
}
