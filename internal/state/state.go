// Package state holds the client's application state, the actions that
// change it and the store that owns the single live instance.
package state

import "github.com/liliang-cn/askdesk/internal/domain"

// State is the complete client application state. Values handed out by the
// Store are snapshots: they share slices with the store and must be treated
// as read-only.
type State struct {
	Documents         []domain.Document `json:"documents"`
	SelectedDocuments []string          `json:"selected_documents"`
	CurrentQuery      string            `json:"current_query"`
	QueryMode         domain.QueryMode  `json:"query_mode"`
	IsLoading         bool              `json:"is_loading"`
	IsUploading       bool              `json:"is_uploading"`
	UploadProgress    int               `json:"upload_progress"`
	CurrentAnswer     *domain.Answer    `json:"current_answer"`
	SidebarOpen       bool              `json:"sidebar_open"`
	SettingsOpen      bool              `json:"settings_open"`
	Theme             domain.Theme      `json:"theme"`
}

// Initial returns the state a session starts from
func Initial() State {
	return State{
		Documents:         []domain.Document{},
		SelectedDocuments: []string{},
		QueryMode:         domain.QueryModeHybrid,
		SidebarOpen:       true,
		Theme:             domain.ThemeLight,
	}
}

// HasDocument reports whether a document with id is present
func (s State) HasDocument(id string) bool {
	for _, d := range s.Documents {
		if d.ID == id {
			return true
		}
	}
	return false
}

// IsSelected reports whether id is in the selection
func (s State) IsSelected(id string) bool {
	for _, sel := range s.SelectedDocuments {
		if sel == id {
			return true
		}
	}
	return false
}
