package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/askdesk/internal/domain"
	"go.uber.org/zap"
)

// Notifier receives user-visible success and error messages
type Notifier interface {
	Notify(level domain.NotificationLevel, message string)
}

const subscriberBuffer = 16

// NotificationHub fans notifications out to every subscriber. A subscriber
// that is not keeping up loses messages rather than blocking the workflow
// that raised them.
type NotificationHub struct {
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	subscribers map[string]chan domain.Notification
}

// NewNotificationHub creates an empty hub
func NewNotificationHub(logger *zap.Logger) *NotificationHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHub{
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[string]chan domain.Notification),
	}
}

// Notify records the message in the log and delivers it to subscribers
func (h *NotificationHub) Notify(level domain.NotificationLevel, message string) {
	n := domain.Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		CreatedAt: h.now().UTC(),
	}

	if level == domain.NotificationError {
		h.logger.Warn("notification", zap.String("level", string(level)), zap.String("message", message))
	} else {
		h.logger.Info("notification", zap.String("level", string(level)), zap.String("message", message))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- n:
		default:
			h.logger.Debug("dropping notification for slow subscriber", zap.String("subscriber", id))
		}
	}
}

// Subscribe returns a channel of future notifications and a cancel function
// that closes it
func (h *NotificationHub) Subscribe() (<-chan domain.Notification, func()) {
	id := uuid.New().String()
	ch := make(chan domain.Notification, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}
