package service

import (
	"context"
	"sync"

	"github.com/liliang-cn/askdesk/internal/domain"
)

type fakeDocs struct {
	list   func(ctx context.Context) ([]domain.Document, error)
	upload func(ctx context.Context, u domain.Upload, progress func(int)) (*domain.UploadResult, error)
	delete func(ctx context.Context, id string) error
	query  func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)

	mu      sync.Mutex
	calls   []string
	queries []domain.QueryRequest
}

func (f *fakeDocs) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDocs) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeDocs) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	f.record("list")
	return f.list(ctx)
}

func (f *fakeDocs) UploadDocument(ctx context.Context, u domain.Upload, progress func(int)) (*domain.UploadResult, error) {
	f.record("upload")
	return f.upload(ctx, u, progress)
}

func (f *fakeDocs) DeleteDocument(ctx context.Context, id string) error {
	f.record("delete")
	return f.delete(ctx, id)
}

func (f *fakeDocs) SubmitQuery(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	f.record("query")
	f.mu.Lock()
	f.queries = append(f.queries, req)
	f.mu.Unlock()
	return f.query(ctx, req)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(level domain.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, domain.Notification{Level: level, Message: message})
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, string(s.Level)+": "+s.Message)
	}
	return out
}

type memoryPrefs struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func (m *memoryPrefs) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryPrefs) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}
