package views

import "assetdb/internal/domain"

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// View switching messages

// SwitchToSearchMsg requests the search view.
type SwitchToSearchMsg struct{}

// SwitchToStatusMsg requests the status view.
type SwitchToStatusMsg struct{}

// searchResultsMsg carries one completed search query.
type searchResultsMsg struct {
	query string
	files []*domain.ManagedFile
}

// reconcileDoneMsg carries one completed reconciliation pass.
type reconcileDoneMsg struct {
	stats *domain.ReconcileStats
	err   error
}
