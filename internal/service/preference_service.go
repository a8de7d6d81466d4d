package service

import (
	"fmt"

	"github.com/liliang-cn/askdesk/internal/domain"
	"github.com/liliang-cn/askdesk/internal/state"
	"go.uber.org/zap"
)

// PreferenceStore persists small user preferences
type PreferenceStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// PreferenceService keeps the theme in step with the preference store
type PreferenceService struct {
	prefs  PreferenceStore
	store  *state.Store
	logger *zap.Logger
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(prefs PreferenceStore, store *state.Store, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{prefs: prefs, store: store, logger: logger}
}

// Restore applies the saved theme, if any. An unknown saved value is ignored.
func (s *PreferenceService) Restore() error {
	value, ok, err := s.prefs.Get(domain.PreferenceKeyTheme)
	if err != nil {
		return fmt.Errorf("failed to read theme preference: %w", err)
	}
	if !ok {
		return nil
	}

	theme := domain.Theme(value)
	if !theme.Valid() {
		s.logger.Warn("Ignoring unknown saved theme", zap.String("theme", value))
		return nil
	}
	s.store.Dispatch(state.SetTheme{Theme: theme})
	return nil
}

// Watch persists the theme each time it changes until stop is called.
// Write failures are logged; the in-memory theme stays as dispatched.
func (s *PreferenceService) Watch() (stop func()) {
	return s.store.Subscribe(func(prev, next state.State, _ state.Action) {
		if prev.Theme == next.Theme {
			return
		}
		if err := s.prefs.Set(domain.PreferenceKeyTheme, string(next.Theme)); err != nil {
			s.logger.Error("Failed to save theme preference", zap.String("theme", string(next.Theme)), zap.Error(err))
			return
		}
		s.logger.Debug("Theme preference saved", zap.String("theme", string(next.Theme)))
	})
}
