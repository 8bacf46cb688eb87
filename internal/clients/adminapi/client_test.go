package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) at(i int) recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   string(b),
		})
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func staticToken(tok string) TokenSource {
	return TokenFunc(func() string { return tok })
}

func TestListApplicationsSendsFiltersAndBearer(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.ListApplicationsResponse{Applications: []domain.Application{
			{ID: 1, Status: domain.ApplicationStatusUnderReview},
			{ID: 2, Status: domain.ApplicationStatusApproved},
		}})
	})

	c := New(srv.URL+"/api/", staticToken("tok-1"), srv.Client())
	apps, err := c.ListApplications(context.Background(), dto.ApplicationFilter{Search: "lina", Status: domain.ApplicationStatusUnderReview})
	require.NoError(t, err)
	require.Len(t, apps, 2)

	require.Equal(t, 1, calls.len())
	call := calls.at(0)
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/api/admin/applications", call.path)
	assert.Equal(t, "search=lina&status=under_review", call.query)
	assert.Equal(t, "Bearer tok-1", call.auth)
}

func TestListApplicationsAlwaysSendsBothParams(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"applications":null}`))
	})

	c := New(srv.URL, nil, srv.Client())
	apps, err := c.ListApplications(context.Background(), dto.ApplicationFilter{})
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
	assert.Equal(t, "search=&status=", calls.at(0).query)
	assert.Equal(t, "", calls.at(0).auth)
}

func TestRejectSendsEmptyReason(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := New(srv.URL, staticToken("t"), srv.Client())
	require.NoError(t, c.RejectApplication(context.Background(), 42, ""))

	call := calls.at(0)
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/admin/applications/42/reject", call.path)
	assert.JSONEq(t, `{"rejection_reason":""}`, call.body)
}

func TestValidateDocumentBody(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := New(srv.URL, nil, srv.Client())
	require.NoError(t, c.ValidateDocument(context.Background(), 9, domain.ValidationStatusInvalid))
	assert.Equal(t, "/admin/documents/9/validate", calls.at(0).path)
	assert.JSONEq(t, `{"status":"invalid"}`, calls.at(0).body)
}

func TestServerMessageIsSurfaced(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Application is not under review"}`))
	})

	c := New(srv.URL, nil, srv.Client())
	err := c.ApproveApplication(context.Background(), 1)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Application is not under review", ErrorMessage(err, "Failed to approve application"))
}

func TestErrorWithoutMessageFallsBack(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	c := New(srv.URL, nil, srv.Client())
	err := c.ApproveApplication(context.Background(), 1)
	assert.Equal(t, "Failed to approve application", ErrorMessage(err, "Failed to approve application"))
	assert.Equal(t, "fallback", ErrorMessage(errors.New("network down"), "fallback"))
}

func TestGetApplicationNotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Application not found"}`))
	})

	c := New(srv.URL, nil, srv.Client())
	_, err := c.GetApplication(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBinaryFetchKeepsContentType(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	})

	c := New(srv.URL, staticToken("tok"), srv.Client())
	payload, err := c.PreviewDocument(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", payload.ContentType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, payload.Data)
	assert.Equal(t, "/admin/documents/5/preview", calls.at(0).path)
	assert.Equal(t, "Bearer tok", calls.at(0).auth)
}

func TestBinaryFetchRespectsLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	})

	c := New(srv.URL, nil, srv.Client(), WithMaxBinaryBytes(16))
	_, err := c.DownloadApplicationPDF(context.Background(), 1)
	assert.Error(t, err)
}

func TestPDFPaths(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	})

	c := New(srv.URL, nil, srv.Client())
	_, err := c.PreviewApplicationPDF(context.Background(), 3)
	require.NoError(t, err)
	_, err = c.DownloadApplicationPDF(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "/admin/applications/3/preview-pdf", calls.at(0).path)
	assert.Equal(t, "/admin/applications/3/download-pdf", calls.at(1).path)
}

func TestExportFeedbacksOmitsEmptyFilters(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,rating\n"))
	})

	c := New(srv.URL, nil, srv.Client())
	_, err := c.ExportFeedbacks(context.Background(), dto.FeedbackFilter{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "/admin/feedbacks/export", calls.at(0).path)
	assert.Equal(t, "rating=4", calls.at(0).query)
}

func TestLoginDoesNotSendBearer(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"new-token","token_type":"Bearer"}`))
	})

	c := New(srv.URL, staticToken("stale"), srv.Client())
	out, err := c.Login(context.Background(), " admin@example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "new-token", out.AccessToken)
	assert.Equal(t, "", calls.at(0).auth)
	assert.JSONEq(t, `{"email":"admin@example.com","password":"pw"}`, calls.at(0).body)
}

func TestCancelledContext(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(srv.URL, nil, srv.Client())
	err := c.ApproveApplication(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListFeedbacksSendsPageAndFilters(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":7,"rating":4,"comment":"ok"}],"current_page":2,"last_page":3}`))
	})

	c := New(srv.URL, staticToken("t"), srv.Client())
	page, err := c.ListFeedbacks(context.Background(), dto.FeedbackFilter{Rating: 4, VisaTypeID: 2}, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, uint(7), page.Data[0].ID)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.LastPage)

	call := calls.at(0)
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/admin/feedbacks", call.path)
	assert.Equal(t, "page=2&rating=4&visa_type_id=2", call.query)
	assert.Equal(t, "Bearer t", call.auth)
}

func TestListFeedbacksNormalisesEmptyPage(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"current_page":1,"last_page":1}`))
	})

	c := New(srv.URL, nil, srv.Client())
	page, err := c.ListFeedbacks(context.Background(), dto.FeedbackFilter{}, 0)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Equal(t, "page=1", calls.at(0).query)
}

func TestDeleteFeedbackPath(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/admin/feedbacks/404" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Feedback deleted"}`))
	})

	c := New(srv.URL, staticToken("t"), srv.Client())
	require.NoError(t, c.DeleteFeedback(context.Background(), 12))
	assert.Equal(t, http.MethodDelete, calls.at(0).method)
	assert.Equal(t, "/admin/feedbacks/12", calls.at(0).path)

	err := c.DeleteFeedback(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Not found", ErrorMessage(err, "Failed to delete feedback"))
}
