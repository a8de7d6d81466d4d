package control

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askdesk/internal/client"
	"github.com/liliang-cn/askdesk/internal/config"
	"github.com/liliang-cn/askdesk/internal/domain"
	"github.com/liliang-cn/askdesk/internal/service"
	"github.com/liliang-cn/askdesk/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errUpstream = &domain.ServiceError{Op: "test", StatusCode: 500, Detail: "boom"}

type stubService struct {
	docs      []domain.Document
	listErr   error
	uploadErr error
	deleteErr error
	queryErr  error
	healthErr error

	uploaded    []byte
	lastQuery   domain.QueryRequest
	queryCalls  int
	healthCalls int
}

func (s *stubService) ListDocuments(context.Context) ([]domain.Document, error) {
	return s.docs, s.listErr
}

func (s *stubService) UploadDocument(_ context.Context, u domain.Upload, _ func(int)) (*domain.UploadResult, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	body, err := io.ReadAll(u.Content)
	if err != nil {
		return nil, err
	}
	s.uploaded = body
	return &domain.UploadResult{DocumentID: "new", Filename: u.Filename, ChunksCreated: 2}, nil
}

func (s *stubService) DeleteDocument(context.Context, string) error {
	return s.deleteErr
}

func (s *stubService) SubmitQuery(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	s.queryCalls++
	s.lastQuery = req
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &domain.QueryResult{Answer: "42", Confidence: 90, ModeUsed: req.Mode}, nil
}

func (s *stubService) Health(context.Context) (*client.HealthStatus, error) {
	s.healthCalls++
	if s.healthErr != nil {
		return nil, s.healthErr
	}
	return &client.HealthStatus{Status: "healthy"}, nil
}

func setup(t *testing.T, svc *stubService, initial state.State) (*gin.Engine, *state.Store) {
	t.Helper()
	store := state.NewStore(initial)
	coordinator := service.NewCoordinator(store, svc, service.NewNotificationHub(nil), nil, 5)
	policy := service.NewUploadPolicy(config.UploadConfig{MaxSizeMB: 1, AllowedExtensions: []string{".pdf"}})
	h := NewHandler(store, coordinator, svc, policy, nil)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r, store
}

func do(r *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) state.State {
	t.Helper()
	var s state.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func multipartFile(t *testing.T, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_GetState(t *testing.T) {
	r, _ := setup(t, &stubService{}, state.Initial())

	w := do(r, http.MethodGet, "/api/state", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeState(t, w)
	assert.Equal(t, domain.QueryModeHybrid, got.QueryMode)
	assert.True(t, got.SidebarOpen)
}

func TestHandler_Dispatch(t *testing.T) {
	r, store := setup(t, &stubService{}, state.Initial())

	w := do(r, http.MethodPost, "/api/dispatch",
		strings.NewReader(`{"type":"SET_QUERY_MODE","payload":"web"}`), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.QueryModeWeb, decodeState(t, w).QueryMode)
	assert.Equal(t, domain.QueryModeWeb, store.Snapshot().QueryMode)
}

func TestHandler_DispatchRejectsBadEnvelopes(t *testing.T) {
	r, store := setup(t, &stubService{}, state.Initial())

	for _, body := range []string{
		`{"type":"NOT_AN_ACTION"}`,
		`{"type":"SET_QUERY_MODE","payload":"telepathy"}`,
		`{"payload":"web"}`,
		`not json`,
	} {
		w := do(r, http.MethodPost, "/api/dispatch", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Equal(t, state.Initial(), store.Snapshot())
}

func TestHandler_DispatchRejectsWorkflowActions(t *testing.T) {
	svc := &stubService{}
	r, store := setup(t, svc, state.Initial())

	for _, body := range []string{
		`{"type":"ADD_DOCUMENT","payload":{"id":"ghost","filename":"ghost.pdf"}}`,
		`{"type":"ADD_DOCUMENT","payload":{"id":"ghost","filename":"ghost.pdf"}}`,
		`{"type":"SET_UPLOADING","payload":true}`,
		`{"type":"SET_LOADING","payload":true}`,
	} {
		w := do(r, http.MethodPost, "/api/dispatch", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	snap := store.Snapshot()
	assert.Empty(t, snap.Documents)
	assert.False(t, snap.IsUploading)
	assert.False(t, snap.IsLoading)
	assert.Zero(t, svc.queryCalls)
}

func TestHandler_ReloadDocuments(t *testing.T) {
	svc := &stubService{docs: []domain.Document{{ID: "d1", Filename: "a.pdf", Status: domain.DocumentStatusReady}}}
	r, _ := setup(t, svc, state.Initial())

	w := do(r, http.MethodPost, "/api/documents/reload", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeState(t, w).Documents, 1)

	svc.listErr = errUpstream
	w = do(r, http.MethodPost, "/api/documents/reload", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_UploadDocument(t *testing.T) {
	svc := &stubService{}
	r, store := setup(t, svc, state.Initial())

	body, contentType := multipartFile(t, "report.pdf", []byte("%PDF-1.4 test"))
	w := do(r, http.MethodPost, "/api/documents", body, contentType)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []byte("%PDF-1.4 test"), svc.uploaded)

	snap := store.Snapshot()
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "new", snap.Documents[0].ID)
	assert.Equal(t, "report.pdf", snap.Documents[0].Filename)
	assert.False(t, snap.IsUploading)
}

func TestHandler_UploadDocumentRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		svcErr   error
		want     int
	}{
		{name: "wrong extension", filename: "notes.txt", content: []byte("x"), want: http.StatusBadRequest},
		{name: "too large", filename: "big.pdf", content: append([]byte("%PDF-1.4 "), bytes.Repeat([]byte("x"), 1<<20)...), want: http.StatusBadRequest},
		{name: "not really a pdf", filename: "fake.pdf", content: []byte("PK\x03\x04 zip archive"), want: http.StatusBadRequest},
		{name: "service failure", filename: "a.pdf", content: []byte("%PDF-1.4 x"), svcErr: errUpstream, want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{uploadErr: tt.svcErr}
			r, store := setup(t, svc, state.Initial())

			body, contentType := multipartFile(t, tt.filename, tt.content)
			w := do(r, http.MethodPost, "/api/documents", body, contentType)

			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, store.Snapshot().Documents)
			assert.False(t, store.Snapshot().IsUploading)
		})
	}
}

func TestHandler_UploadDocumentRequiresFile(t *testing.T) {
	r, _ := setup(t, &stubService{}, state.Initial())
	w := do(r, http.MethodPost, "/api/documents", strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_DeleteDocument(t *testing.T) {
	initial := state.Initial()
	initial.Documents = []domain.Document{{ID: "d1"}, {ID: "d2"}}
	svc := &stubService{}
	r, store := setup(t, svc, initial)

	svc.deleteErr = errUpstream
	w := do(r, http.MethodDelete, "/api/documents/d1", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, store.Snapshot().Documents, 2)

	svc.deleteErr = nil
	w = do(r, http.MethodDelete, "/api/documents/d1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeState(t, w).Documents, 1)
}

func TestHandler_DeleteUnknownDocument(t *testing.T) {
	initial := state.Initial()
	initial.Documents = []domain.Document{{ID: "d1"}}
	svc := &stubService{deleteErr: &domain.ServiceError{Op: domain.OpDeleteDocument, StatusCode: 404, Err: domain.ErrNotFound}}
	r, store := setup(t, svc, initial)

	w := do(r, http.MethodDelete, "/api/documents/gone", nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, store.Snapshot().Documents, 1)
}

func TestHandler_SubmitQuery(t *testing.T) {
	svc := &stubService{}
	r, store := setup(t, svc, state.Initial())

	w := do(r, http.MethodPost, "/api/query",
		strings.NewReader(`{"query":"What is X?","mode":"pdf"}`), "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := store.Snapshot()
	require.NotNil(t, snap.CurrentAnswer)
	assert.Equal(t, "42", snap.CurrentAnswer.Text)
	assert.Equal(t, "What is X?", snap.CurrentAnswer.Query)
	assert.Equal(t, domain.QueryModePDF, svc.lastQuery.Mode)
	assert.False(t, snap.IsLoading)
}

func TestHandler_SubmitQueryUsesCurrentQueryWithoutBody(t *testing.T) {
	initial := state.Initial()
	initial.CurrentQuery = "already typed"
	svc := &stubService{}
	r, _ := setup(t, svc, initial)

	w := do(r, http.MethodPost, "/api/query", strings.NewReader(""), "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "already typed", svc.lastQuery.Query)
}

func TestHandler_SubmitQueryErrors(t *testing.T) {
	svc := &stubService{}
	r, store := setup(t, svc, state.Initial())

	w := do(r, http.MethodPost, "/api/query", strings.NewReader(`{"query":"   "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.queryCalls)
	assert.False(t, store.Snapshot().IsLoading)

	w = do(r, http.MethodPost, "/api/query", strings.NewReader(`{"query":"q","mode":"psychic"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.queryCalls)

	svc.queryErr = errUpstream
	w = do(r, http.MethodPost, "/api/query", strings.NewReader(`{"query":"q"}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, store.Snapshot().IsLoading)
}

func TestHandler_ClearResultsAndToggleTheme(t *testing.T) {
	initial := state.Initial()
	initial.CurrentQuery = "q"
	initial.CurrentAnswer = &domain.Answer{Text: "a"}
	r, _ := setup(t, &stubService{}, initial)

	w := do(r, http.MethodPost, "/api/query/clear", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeState(t, w)
	assert.Nil(t, got.CurrentAnswer)
	assert.Empty(t, got.CurrentQuery)

	w = do(r, http.MethodPost, "/api/theme/toggle", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ThemeDark, decodeState(t, w).Theme)
}

func TestHandler_UpstreamHealth(t *testing.T) {
	svc := &stubService{}
	r, _ := setup(t, svc, state.Initial())

	w := do(r, http.MethodGet, "/api/health/upstream", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	// a recent success is reused
	w = do(r, http.MethodGet, "/api/health/upstream", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.healthCalls)
}

func TestHandler_UpstreamHealthFailureIsNotCached(t *testing.T) {
	svc := &stubService{healthErr: errUpstream}
	r, _ := setup(t, svc, state.Initial())

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodGet, "/api/health/upstream", nil, "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	}
	assert.Equal(t, 2, svc.healthCalls)
}
