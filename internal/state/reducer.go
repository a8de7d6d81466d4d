package state

import "github.com/liliang-cn/askdesk/internal/domain"

// Reduce computes the state that follows s once a is applied. It never
// modifies s: any slice that changes is freshly allocated. Actions it does
// not recognise leave the state as it was.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetDocuments:
		docs := cloneDocuments(a.Documents)
		s.Documents = docs
		s.SelectedDocuments = keepKnown(s.SelectedDocuments, docs)
	case AddDocument:
		docs := make([]domain.Document, 0, len(s.Documents)+1)
		docs = append(docs, a.Document)
		s.Documents = append(docs, s.Documents...)
	case RemoveDocument:
		// both lists change in this one transition
		s.Documents = without(s.Documents, func(d domain.Document) bool { return d.ID == a.ID })
		s.SelectedDocuments = without(s.SelectedDocuments, func(id string) bool { return id == a.ID })
	case SetSelectedDocuments:
		s.SelectedDocuments = keepKnown(a.IDs, s.Documents)
	case ToggleDocumentSelection:
		switch {
		case s.IsSelected(a.ID):
			s.SelectedDocuments = without(s.SelectedDocuments, func(id string) bool { return id == a.ID })
		case s.HasDocument(a.ID):
			sel := make([]string, 0, len(s.SelectedDocuments)+1)
			sel = append(sel, s.SelectedDocuments...)
			s.SelectedDocuments = append(sel, a.ID)
		}
	case SetCurrentQuery:
		s.CurrentQuery = a.Query
	case SetQueryMode:
		if a.Mode.Valid() {
			s.QueryMode = a.Mode
		}
	case SetLoading:
		s.IsLoading = a.Loading
	case SetUploading:
		s.IsUploading = a.Uploading
		if !a.Uploading {
			s.UploadProgress = 0
		}
	case SetUploadProgress:
		if s.IsUploading {
			s.UploadProgress = clampPercent(a.Progress)
		}
	case SetCurrentAnswer:
		s.CurrentAnswer = a.Answer
	case ToggleSidebar:
		s.SidebarOpen = !s.SidebarOpen
	case SetTheme:
		if a.Theme.Valid() {
			s.Theme = a.Theme
		}
	case ToggleSettings:
		s.SettingsOpen = !s.SettingsOpen
	case ClearResults:
		s.CurrentAnswer = nil
	}
	return s
}

func cloneDocuments(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, len(docs))
	copy(out, docs)
	return out
}

func without[T any](in []T, drop func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}

// keepKnown returns ids that name a document in docs, first occurrence only
func keepKnown(ids []string, docs []domain.Document) []string {
	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known[d.ID] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			out = append(out, id)
			delete(known, id)
		}
	}
	return out
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
