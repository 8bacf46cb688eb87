package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
	"github.com/SundayYogurt/visa_admin/pkg/utils"
)

const (
	defaultMaxBinary = 50 << 20
	maxJSONBody      = 8 << 20
)

// TokenSource supplies the bearer token for each request; "" sends the request unauthenticated.
type TokenSource interface {
	AccessToken() string
}

type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }

type Client struct {
	baseURL   string
	tokens    TokenSource
	http      *http.Client
	maxBinary int64
	log       *slog.Logger
}

type Option func(*Client)

func WithMaxBinaryBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBinary = n
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(baseURL string, tokens TokenSource, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	c := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:    tokens,
		http:      httpClient,
		maxBinary: defaultMaxBinary,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges admin credentials for an access token. It never sends a bearer header.
func (c *Client) Login(ctx context.Context, email, password string) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	body := dto.AdminLogin{Email: strings.TrimSpace(email), Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/admin/login", nil, body, &out, false); err != nil {
		return dto.LoginResponse{}, err
	}
	if out.AccessToken == "" {
		return dto.LoginResponse{}, fmt.Errorf("login response has no access_token")
	}
	return out, nil
}

func (c *Client) ListApplications(ctx context.Context, filter dto.ApplicationFilter) ([]domain.Application, error) {
	q := url.Values{}
	q.Set("search", filter.Search)
	q.Set("status", string(filter.Status))

	var out dto.ListApplicationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/admin/applications", q, nil, &out, true); err != nil {
		return nil, err
	}
	if out.Applications == nil {
		out.Applications = []domain.Application{}
	}
	return out.Applications, nil
}

func (c *Client) GetApplication(ctx context.Context, id uint) (*domain.Application, error) {
	var out dto.ApplicationResponse
	if err := c.doJSON(ctx, http.MethodGet, applicationPath(id, ""), nil, nil, &out, true); err != nil {
		return nil, err
	}
	if out.Application == nil {
		return nil, ErrNotFound
	}
	return out.Application, nil
}

func (c *Client) ApproveApplication(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodPut, applicationPath(id, "approve"), nil, nil, nil, true)
}

// RejectApplication always sends rejection_reason, even when empty.
func (c *Client) RejectApplication(ctx context.Context, id uint, reason string) error {
	body := dto.RejectApplicationRequest{RejectionReason: reason}
	return c.doJSON(ctx, http.MethodPut, applicationPath(id, "reject"), nil, body, nil, true)
}

func (c *Client) ValidateDocument(ctx context.Context, docID uint, status domain.ValidationStatus) error {
	body := dto.ValidateDocumentRequest{Status: status}
	return c.doJSON(ctx, http.MethodPut, documentPath(docID, "validate"), nil, body, nil, true)
}

func (c *Client) PreviewDocument(ctx context.Context, docID uint) (dto.BinaryPayload, error) {
	return c.doBinary(ctx, documentPath(docID, "preview"), nil)
}

func (c *Client) PreviewApplicationPDF(ctx context.Context, id uint) (dto.BinaryPayload, error) {
	return c.doBinary(ctx, applicationPath(id, "preview-pdf"), nil)
}

func (c *Client) DownloadApplicationPDF(ctx context.Context, id uint) (dto.BinaryPayload, error) {
	return c.doBinary(ctx, applicationPath(id, "download-pdf"), nil)
}

// ListFeedbacks fetches one server page; page values below 1 ask for the first.
func (c *Client) ListFeedbacks(ctx context.Context, filter dto.FeedbackFilter, page int) (dto.FeedbackPage, error) {
	if page < 1 {
		page = 1
	}
	q := feedbackQuery(filter)
	q.Set("page", strconv.Itoa(page))

	var out dto.FeedbackPage
	if err := c.doJSON(ctx, http.MethodGet, "/admin/feedbacks", q, nil, &out, true); err != nil {
		return dto.FeedbackPage{}, err
	}
	if out.Data == nil {
		out.Data = []domain.Feedback{}
	}
	return out, nil
}

func (c *Client) DeleteFeedback(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, "/admin/feedbacks/"+strconv.FormatUint(uint64(id), 10), nil, nil, nil, true)
}

func (c *Client) ExportFeedbacks(ctx context.Context, filter dto.FeedbackFilter) (dto.BinaryPayload, error) {
	return c.doBinary(ctx, "/admin/feedbacks/export", feedbackQuery(filter))
}

// feedbackQuery omits empty filters.
func feedbackQuery(filter dto.FeedbackFilter) url.Values {
	q := url.Values{}
	if filter.Rating > 0 {
		q.Set("rating", strconv.Itoa(filter.Rating))
	}
	if filter.CountryID > 0 {
		q.Set("country_id", strconv.FormatUint(uint64(filter.CountryID), 10))
	}
	if filter.VisaTypeID > 0 {
		q.Set("visa_type_id", strconv.FormatUint(uint64(filter.VisaTypeID), 10))
	}
	return q
}

func applicationPath(id uint, action string) string {
	p := "/admin/applications/" + strconv.FormatUint(uint64(id), 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func documentPath(id uint, action string) string {
	return "/admin/documents/" + strconv.FormatUint(uint64(id), 10) + "/" + action
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, auth bool) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if auth {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, query, body, auth)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := utils.ReadAllLimit(resp.Body, maxJSONBody)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	c.log.Debug("admin api call", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// doBinary expects raw bytes, not JSON; error bodies may still be JSON.
func (c *Client) doBinary(ctx context.Context, path string, query url.Values) (dto.BinaryPayload, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil, true)
	if err != nil {
		return dto.BinaryPayload{}, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return dto.BinaryPayload{}, fmt.Errorf("send GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := utils.ReadAllLimit(resp.Body, c.maxBinary)
	if err != nil {
		return dto.BinaryPayload{}, fmt.Errorf("read %s body: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dto.BinaryPayload{}, newAPIError(resp.StatusCode, data)
	}
	c.log.Debug("admin api download", "path", path, "bytes", len(data), "content_type", resp.Header.Get("Content-Type"))

	return dto.BinaryPayload{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

var (
	_ interfaces.ApplicationAPI = (*Client)(nil)
	_ interfaces.DocumentAPI    = (*Client)(nil)
	_ interfaces.FeedbackAPI    = (*Client)(nil)
)
