// Package client talks to the remote document Q&A service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/askdesk/internal/domain"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is read for its detail
const maxErrorBody = 64 << 10

// Client is the HTTP client for the document service. Timeouts are the
// client's concern; it never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the service rooted at baseURL (e.g.
// http://localhost:8000/api/v1)
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListDocuments returns every document the service knows about
func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var resp documentListResponse
	if err := c.doJSON(ctx, domain.OpListDocuments, http.MethodGet, "/documents/", nil, &resp); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, d.toDomain())
	}
	return docs, nil
}

// UploadDocument streams the file to the service as multipart form data.
// progress, if non-nil, receives the percentage of bytes sent; it never
// reports 100, which is left for the caller once the service confirms.
func (c *Client) UploadDocument(ctx context.Context, upload domain.Upload, progress func(int)) (*domain.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", upload.Filename)
		if err == nil {
			src := io.Reader(upload.Content)
			if progress != nil && upload.Size > 0 {
				src = &progressReader{r: src, total: upload.Size, report: progress, last: -1}
			}
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/upload/", pr)
	if err != nil {
		pr.Close()
		return nil, &domain.ServiceError{Op: domain.OpUploadDocument, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.do(req, domain.OpUploadDocument, &resp); err != nil {
		return nil, err
	}

	return &domain.UploadResult{
		DocumentID:    resp.DocumentID,
		Filename:      resp.Filename,
		ChunksCreated: resp.ChunksCreated,
	}, nil
}

// DeleteDocument removes a document from the service
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	path := "/documents/" + url.PathEscape(id) + "/"
	return c.doJSON(ctx, domain.OpDeleteDocument, http.MethodDelete, path, nil, nil)
}

// SubmitQuery asks the service a question
func (c *Client) SubmitQuery(ctx context.Context, q domain.QueryRequest) (*domain.QueryResult, error) {
	body := queryRequest{
		Query:       q.Query,
		Mode:        string(q.Mode),
		DocumentIDs: q.DocumentIDs,
		TopK:        q.TopK,
	}

	var resp queryResponse
	if err := c.doJSON(ctx, domain.OpSubmitQuery, http.MethodPost, "/query/", body, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// Health reports the service's health endpoint
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.doJSON(ctx, domain.OpHealth, http.MethodGet, "/health/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &domain.ServiceError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &domain.ServiceError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, op, out)
}

// do sends req and decodes a 2xx body into out. Every failure comes back as
// a *domain.ServiceError.
func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("service call",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     readErrorDetail(resp.Body),
			Err:        statusError(resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// statusError maps statuses callers may want to tell apart onto sentinels
func statusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	}
	return nil
}

func readErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		switch d := body.Detail.(type) {
		case string:
			return d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// progressReader reports how much of total has been read, as a percentage
// capped at 99
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
