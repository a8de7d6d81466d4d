package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/liliang-cn/askdesk/internal/domain"
)

var (
	// ErrUnknownAction is returned for an envelope whose type is not in the vocabulary
	ErrUnknownAction = errors.New("unknown action type")
	// ErrInvalidPayload is returned when the payload does not fit the action
	ErrInvalidPayload = errors.New("invalid action payload")
	// ErrWorkflowAction is returned when a view sends an action only workflows may dispatch
	ErrWorkflowAction = errors.New("action is reserved for workflows")
)

// viewActions are the UI-local transitions a view may dispatch directly.
// Document list, busy flags, progress and answers change only through
// workflows, which confirm them with the service first.
var viewActions = map[ActionType]bool{
	TypeSetSelectedDocuments:    true,
	TypeToggleDocumentSelection: true,
	TypeSetCurrentQuery:         true,
	TypeSetQueryMode:            true,
	TypeToggleSidebar:           true,
	TypeToggleSettings:          true,
	TypeSetTheme:                true,
	TypeClearResults:            true,
}

// DecodeViewAction is DecodeAction restricted to the actions a view may send
func DecodeViewAction(env Envelope) (Action, error) {
	action, err := DecodeAction(env)
	if err != nil {
		return nil, err
	}
	if !viewActions[env.Type] {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowAction, env.Type)
	}
	return action, nil
}

// Envelope is the JSON form of an action: {"type": "...", "payload": ...}
type Envelope struct {
	Type    ActionType      `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeAction turns an envelope into the matching Action value
func DecodeAction(env Envelope) (Action, error) {
	switch env.Type {
	case TypeSetDocuments:
		var docs []domain.Document
		if err := decodePayload(env, &docs); err != nil {
			return nil, err
		}
		return SetDocuments{Documents: docs}, nil
	case TypeAddDocument:
		var doc domain.Document
		if err := decodePayload(env, &doc); err != nil {
			return nil, err
		}
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: %s: document id is required", ErrInvalidPayload, env.Type)
		}
		return AddDocument{Document: doc}, nil
	case TypeRemoveDocument:
		var id string
		if err := decodePayload(env, &id); err != nil {
			return nil, err
		}
		return RemoveDocument{ID: id}, nil
	case TypeSetSelectedDocuments:
		var ids []string
		if err := decodePayload(env, &ids); err != nil {
			return nil, err
		}
		return SetSelectedDocuments{IDs: ids}, nil
	case TypeToggleDocumentSelection:
		var id string
		if err := decodePayload(env, &id); err != nil {
			return nil, err
		}
		return ToggleDocumentSelection{ID: id}, nil
	case TypeSetCurrentQuery:
		var q string
		if err := decodePayload(env, &q); err != nil {
			return nil, err
		}
		return SetCurrentQuery{Query: q}, nil
	case TypeSetQueryMode:
		var mode domain.QueryMode
		if err := decodePayload(env, &mode); err != nil {
			return nil, err
		}
		if !mode.Valid() {
			return nil, fmt.Errorf("%w: %s: unknown mode %q", ErrInvalidPayload, env.Type, mode)
		}
		return SetQueryMode{Mode: mode}, nil
	case TypeSetLoading:
		var v bool
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		return SetLoading{Loading: v}, nil
	case TypeSetUploading:
		var v bool
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		return SetUploading{Uploading: v}, nil
	case TypeSetUploadProgress:
		var p int
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return SetUploadProgress{Progress: p}, nil
	case TypeSetCurrentAnswer:
		var answer *domain.Answer
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &answer); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
			}
		}
		return SetCurrentAnswer{Answer: answer}, nil
	case TypeToggleSidebar:
		return ToggleSidebar{}, nil
	case TypeSetTheme:
		var theme domain.Theme
		if err := decodePayload(env, &theme); err != nil {
			return nil, err
		}
		if !theme.Valid() {
			return nil, fmt.Errorf("%w: %s: unknown theme %q", ErrInvalidPayload, env.Type, theme)
		}
		return SetTheme{Theme: theme}, nil
	case TypeToggleSettings:
		return ToggleSettings{}, nil
	case TypeClearResults:
		return ClearResults{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
}

func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s: payload is required", ErrInvalidPayload, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Type, err)
	}
	return nil
}
