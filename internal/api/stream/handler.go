// Package stream pushes state commits and notifications to views as
// server-sent events.
package stream

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askdesk/internal/domain"
	"github.com/liliang-cn/askdesk/internal/state"
	"go.uber.org/zap"
)

// NotificationSource hands out notification subscriptions
type NotificationSource interface {
	Subscribe() (<-chan domain.Notification, func())
}

// DefaultKeepAlive is how often an idle stream sends a ping event
const DefaultKeepAlive = 15 * time.Second

// Handler streams events to views
type Handler struct {
	store         *state.Store
	notifications NotificationSource
	keepAlive     time.Duration
	logger        *zap.Logger
}

// NewHandler creates a new stream handler. keepAlive <= 0 uses DefaultKeepAlive.
func NewHandler(store *state.Store, notifications NotificationSource, keepAlive time.Duration, logger *zap.Logger) *Handler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:         store,
		notifications: notifications,
		keepAlive:     keepAlive,
		logger:        logger,
	}
}

// RegisterRoutes registers stream routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.Events)
}

// Events sends the current state, then a "state" event per commit and a
// "notification" event per notification until the view disconnects. A view
// that falls behind skips intermediate states and always receives the latest.
func (h *Handler) Events(c *gin.Context) {
	states := make(chan state.State, 1)
	unsubscribe := h.store.Subscribe(func(_, next state.State, _ state.Action) {
		offerLatest(states, next)
	})
	defer unsubscribe()

	notes, cancel := h.notifications.Subscribe()
	defer cancel()

	offerLatest(states, h.store.Snapshot())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	h.logger.Debug("Event stream opened", zap.String("remote", c.ClientIP()))
	defer h.logger.Debug("Event stream closed", zap.String("remote", c.ClientIP()))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case s := <-states:
			c.SSEvent("state", s)
			return true
		case n, ok := <-notes:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		}
	})
}

// offerLatest replaces whatever is pending in ch with s
func offerLatest(ch chan state.State, s state.State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
