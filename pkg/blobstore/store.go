// Package blobstore keeps transient in-memory payloads addressable by URL until revoked.
package blobstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultContentType = "application/octet-stream"

var ErrNotFound = errors.New("blob not found")

type Handle struct {
	ID          string
	URL         string
	Filename    string
	ContentType string
	Size        int
}

type blob struct {
	data        []byte
	contentType string
	filename    string
	createdAt   time.Time
}

type Store struct {
	mu      sync.RWMutex
	blobs   map[string]blob
	baseURL string

	app *fiber.App
	ln  net.Listener
}

func New() *Store {
	s := &Store{
		blobs:   make(map[string]blob),
		baseURL: "blob:",
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/blobs/:id", s.serveBlob)
	s.app = app
	return s
}

// Serve exposes blobs over HTTP on addr (normally a loopback address with port 0).
// Handles created afterwards carry http URLs.
func (s *Store) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen blob server: %w", err)
	}

	s.mu.Lock()
	s.ln = ln
	s.baseURL = "http://" + ln.Addr().String() + "/blobs/"
	s.mu.Unlock()

	go func() {
		_ = s.app.Listener(ln)
	}()
	return nil
}

func (s *Store) App() *fiber.App {
	return s.app
}

func (s *Store) Create(data []byte, contentType, filename string) Handle {
	if contentType == "" {
		contentType = defaultContentType
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = blob{
		data:        data,
		contentType: contentType,
		filename:    filename,
		createdAt:   time.Now(),
	}
	return Handle{
		ID:          id,
		URL:         s.baseURL + id,
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
	}
}

// Revoke releases the payload. It reports whether the handle was still live.
func (s *Store) Revoke(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return false
	}
	delete(s.blobs, id)
	return true
}

func (s *Store) Reader(id string) (io.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.NewReader(b.data), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Close stops the HTTP listener and drops every payload.
func (s *Store) Close() error {
	s.mu.Lock()
	s.blobs = make(map[string]blob)
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := s.app.Shutdown()
	_ = ln.Close()
	return err
}

func (s *Store) serveBlob(ctx *fiber.Ctx) error {
	s.mu.RLock()
	b, ok := s.blobs[ctx.Params("id")]
	s.mu.RUnlock()
	if !ok {
		return ctx.Status(fiber.StatusNotFound).SendString("blob revoked or unknown")
	}

	ctx.Set(fiber.HeaderContentType, b.contentType)
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	if b.filename != "" {
		disposition := "inline"
		if ctx.QueryBool("download") {
			disposition = "attachment"
		}
		ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, b.filename))
	}
	return ctx.Send(b.data)
}
