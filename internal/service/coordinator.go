package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/liliang-cn/askdesk/internal/domain"
	"github.com/liliang-cn/askdesk/internal/state"
	"go.uber.org/zap"
)

// DocumentService is the remote document Q&A service
type DocumentService interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	UploadDocument(ctx context.Context, upload domain.Upload, progress func(int)) (*domain.UploadResult, error)
	DeleteDocument(ctx context.Context, id string) error
	SubmitQuery(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)
}

// User-visible notification messages
const (
	MsgLoadFailed   = "Failed to load documents"
	MsgUploadFailed = "Failed to upload file"
	MsgUploaded     = "Uploaded: "
	MsgDeleteFailed = "Failed to delete document"
	MsgDeleted      = "Document deleted"
	MsgQueryFailed  = "Failed to get answer"
	MsgQueryMissing = "Please enter a query"
)

const (
	defaultTopK = 5
	// 100 is reserved for the service's confirmation
	maxTransferProgress = 99
)

// Coordinator runs the asynchronous workflows that turn user intents into
// service calls and dispatched actions. Workflows may run concurrently; none
// cancels another. Each returns an error as its completion signal, which
// callers are free to ignore since every outcome is already reflected in
// state and notifications.
type Coordinator struct {
	store    *state.Store
	docs     DocumentService
	notifier Notifier
	logger   *zap.Logger
	topK     int
	now      func() time.Time

	// queryMu orders generation changes with the dispatches that depend on them
	queryMu    sync.Mutex
	generation uint64
}

// NewCoordinator creates a coordinator. topK <= 0 falls back to 5.
func NewCoordinator(store *state.Store, docs DocumentService, notifier Notifier, logger *zap.Logger, topK int) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Coordinator{
		store:    store,
		docs:     docs,
		notifier: notifier,
		logger:   logger,
		topK:     topK,
		now:      time.Now,
	}
}

// LoadDocuments replaces the document list with the service's
func (c *Coordinator) LoadDocuments(ctx context.Context) error {
	docs, err := c.docs.ListDocuments(ctx)
	if err != nil {
		c.logger.Error("Failed to load documents", zap.Error(err))
		c.notifier.Notify(domain.NotificationError, MsgLoadFailed)
		return err
	}

	c.store.Dispatch(state.SetDocuments{Documents: docs})
	c.logger.Debug("Documents loaded", zap.Int("count", len(docs)))
	return nil
}

// Upload sends one file to the service and adds the resulting document.
// Concurrent uploads are not serialized; they share the single progress
// indicator.
func (c *Coordinator) Upload(ctx context.Context, upload domain.Upload) error {
	c.store.Dispatch(state.SetUploading{Uploading: true})
	c.store.Dispatch(state.SetUploadProgress{Progress: 0})
	defer func() {
		c.store.Dispatch(state.SetUploading{Uploading: false})
		c.store.Dispatch(state.SetUploadProgress{Progress: 0})
	}()

	res, err := c.docs.UploadDocument(ctx, upload, func(p int) {
		c.store.Dispatch(state.SetUploadProgress{Progress: min(p, maxTransferProgress)})
	})
	if err == nil && (res == nil || res.DocumentID == "") {
		err = &domain.ServiceError{Op: domain.OpUploadDocument, Detail: "response carried no document id"}
	}
	if err != nil {
		c.logger.Error("Failed to upload file", zap.String("filename", upload.Filename), zap.Error(err))
		c.notifier.Notify(domain.NotificationError, MsgUploadFailed)
		return err
	}

	filename := res.Filename
	if filename == "" {
		filename = upload.Filename
	}

	c.store.Dispatch(state.SetUploadProgress{Progress: 100})
	c.store.Dispatch(state.AddDocument{Document: domain.Document{
		ID:         res.DocumentID,
		Filename:   filename,
		UploadDate: c.now(),
		ChunkCount: max(res.ChunksCreated, 0),
		Status:     domain.DocumentStatusReady,
	}})
	c.notifier.Notify(domain.NotificationSuccess, MsgUploaded+upload.Filename)

	c.logger.Info("Document uploaded",
		zap.String("document_id", res.DocumentID),
		zap.String("filename", filename),
		zap.Int("chunks", res.ChunksCreated),
	)
	return nil
}

// DeleteDocument removes a document on the service, then locally. Nothing is
// removed until the service confirms.
func (c *Coordinator) DeleteDocument(ctx context.Context, id string) error {
	if err := c.docs.DeleteDocument(ctx, id); err != nil {
		c.logger.Error("Failed to delete document", zap.String("document_id", id), zap.Error(err))
		c.notifier.Notify(domain.NotificationError, MsgDeleteFailed)
		return err
	}

	c.store.Dispatch(state.RemoveDocument{ID: id})
	c.notifier.Notify(domain.NotificationSuccess, MsgDeleted)
	c.logger.Info("Document deleted", zap.String("document_id", id))
	return nil
}

// SubmitQuery asks the service about the current query text, scoped to the
// selected documents when any are selected.
//
// Every accepted submission takes a new generation. Only the latest
// generation may publish an answer or lower the loading flag; an older
// submission that completes afterwards is logged and dropped, and returns
// domain.ErrQuerySuperseded.
func (c *Coordinator) SubmitQuery(ctx context.Context) error {
	snap := c.store.Snapshot()
	if strings.TrimSpace(snap.CurrentQuery) == "" {
		c.notifier.Notify(domain.NotificationError, MsgQueryMissing)
		return domain.ErrEmptyQuery
	}

	req := domain.QueryRequest{
		Query: snap.CurrentQuery,
		Mode:  snap.QueryMode,
		TopK:  c.topK,
	}
	if len(snap.SelectedDocuments) > 0 {
		req.DocumentIDs = append([]string(nil), snap.SelectedDocuments...)
	}

	c.queryMu.Lock()
	c.generation++
	gen := c.generation
	c.store.Dispatch(state.SetLoading{Loading: true})
	c.store.Dispatch(state.ClearResults{})
	c.queryMu.Unlock()

	res, err := c.docs.SubmitQuery(ctx, req)

	c.queryMu.Lock()
	defer c.queryMu.Unlock()

	if gen != c.generation {
		if err != nil {
			c.logger.Warn("Superseded query failed",
				zap.Uint64("generation", gen),
				zap.Uint64("latest", c.generation),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %w", domain.ErrQuerySuperseded, err)
		}
		c.logger.Debug("Discarding superseded query result",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", c.generation),
		)
		return domain.ErrQuerySuperseded
	}
	defer c.store.Dispatch(state.SetLoading{Loading: false})

	if err != nil {
		c.logger.Error("Failed to get answer", zap.String("mode", string(req.Mode)), zap.Error(err))
		c.notifier.Notify(domain.NotificationError, MsgQueryFailed)
		return err
	}

	mode := res.ModeUsed
	if !mode.Valid() {
		mode = req.Mode
	}
	sources := res.Sources
	if sources == nil {
		sources = []domain.Source{}
	}

	c.store.Dispatch(state.SetCurrentAnswer{Answer: &domain.Answer{
		Text:       res.Answer,
		Sources:    sources,
		Confidence: res.Confidence,
		Mode:       mode,
		Timestamp:  c.now(),
		Query:      req.Query,
	}})
	c.logger.Info("Answer received",
		zap.String("mode", string(mode)),
		zap.Int("sources", len(sources)),
		zap.Int("confidence", res.Confidence),
	)
	return nil
}

// ClearResults drops the current answer and empties the query box
func (c *Coordinator) ClearResults() {
	c.store.Dispatch(state.ClearResults{})
	c.store.Dispatch(state.SetCurrentQuery{Query: ""})
}

// ToggleTheme flips between light and dark
func (c *Coordinator) ToggleTheme() domain.Theme {
	next := c.store.Snapshot().Theme.Toggle()
	c.store.Dispatch(state.SetTheme{Theme: next})
	return next
}

// IsValidation reports whether err is a user input problem rather than a
// service failure
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrEmptyQuery) ||
		errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrUnsupportedFile) ||
		errors.Is(err, domain.ErrFileTooLarge)
}
