package state

import "github.com/liliang-cn/askdesk/internal/domain"

// ActionType names a state transition. The names double as the wire
// identifiers accepted by DecodeAction.
type ActionType string

// Action type constants
const (
	TypeSetDocuments            ActionType = "SET_DOCUMENTS"
	TypeAddDocument             ActionType = "ADD_DOCUMENT"
	TypeRemoveDocument          ActionType = "REMOVE_DOCUMENT"
	TypeSetSelectedDocuments    ActionType = "SET_SELECTED_DOCUMENTS"
	TypeToggleDocumentSelection ActionType = "TOGGLE_DOCUMENT_SELECTION"
	TypeSetCurrentQuery         ActionType = "SET_CURRENT_QUERY"
	TypeSetQueryMode            ActionType = "SET_QUERY_MODE"
	TypeSetLoading              ActionType = "SET_LOADING"
	TypeSetUploading            ActionType = "SET_UPLOADING"
	TypeSetUploadProgress       ActionType = "SET_UPLOAD_PROGRESS"
	TypeSetCurrentAnswer        ActionType = "SET_CURRENT_ANSWER"
	TypeToggleSidebar           ActionType = "TOGGLE_SIDEBAR"
	TypeSetTheme                ActionType = "SET_THEME"
	TypeToggleSettings          ActionType = "TOGGLE_SETTINGS"
	TypeClearResults            ActionType = "CLEAR_RESULTS"
)

// Action is an inert request for one state transition
type Action interface {
	Type() ActionType
}

// SetDocuments replaces the document list with the server's view
type SetDocuments struct {
	Documents []domain.Document
}

// AddDocument prepends a newly uploaded document
type AddDocument struct {
	Document domain.Document
}

// RemoveDocument drops a document and its selection entry
type RemoveDocument struct {
	ID string
}

type SetSelectedDocuments struct {
	IDs []string
}

type ToggleDocumentSelection struct {
	ID string
}

type SetCurrentQuery struct {
	Query string
}

type SetQueryMode struct {
	Mode domain.QueryMode
}

type SetLoading struct {
	Loading bool
}

type SetUploading struct {
	Uploading bool
}

type SetUploadProgress struct {
	Progress int
}

// SetCurrentAnswer replaces the current answer wholesale. A nil Answer
// clears it.
type SetCurrentAnswer struct {
	Answer *domain.Answer
}

type ToggleSidebar struct{}

type SetTheme struct {
	Theme domain.Theme
}

type ToggleSettings struct{}

// ClearResults clears the current answer and nothing else
type ClearResults struct{}

func (SetDocuments) Type() ActionType            { return TypeSetDocuments }
func (AddDocument) Type() ActionType             { return TypeAddDocument }
func (RemoveDocument) Type() ActionType          { return TypeRemoveDocument }
func (SetSelectedDocuments) Type() ActionType    { return TypeSetSelectedDocuments }
func (ToggleDocumentSelection) Type() ActionType { return TypeToggleDocumentSelection }
func (SetCurrentQuery) Type() ActionType         { return TypeSetCurrentQuery }
func (SetQueryMode) Type() ActionType            { return TypeSetQueryMode }
func (SetLoading) Type() ActionType              { return TypeSetLoading }
func (SetUploading) Type() ActionType            { return TypeSetUploading }
func (SetUploadProgress) Type() ActionType       { return TypeSetUploadProgress }
func (SetCurrentAnswer) Type() ActionType        { return TypeSetCurrentAnswer }
func (ToggleSidebar) Type() ActionType           { return TypeToggleSidebar }
func (SetTheme) Type() ActionType                { return TypeSetTheme }
func (ToggleSettings) Type() ActionType          { return TypeToggleSettings }
func (ClearResults) Type() ActionType            { return TypeClearResults }
