package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"assetdb/internal/adapters/tui/views"
	"assetdb/internal/application/resolver"
	"assetdb/internal/application/tracker"
)

// ViewState represents the current view
type ViewState int

const (
	ViewStatus ViewState = iota
	ViewSearch
)

// App is the main TUI application model
type App struct {
	state  ViewState
	status *views.StatusModel
	search *views.SearchModel

	width  int
	height int
}

// NewApp creates a new TUI application
func NewApp(res *resolver.Resolver, tr *tracker.Tracker, root string) *App {
	return &App{
		state:  ViewStatus,
		status: views.NewStatusModel(res, tr, root),
		search: views.NewSearchModel(res),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.status.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.status.SetSize(msg.Width, msg.Height)
		a.search.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToSearchMsg:
		a.state = ViewSearch
		a.search.Reset()
		return a, a.search.Init()

	case views.SwitchToStatusMsg:
		a.state = ViewStatus
		return a, nil
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewSearch:
		_, cmd = a.search.Update(msg)
	default:
		_, cmd = a.status.Update(msg)
	}
	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	if a.state == ViewSearch {
		return a.search.View()
	}
	return a.status.View()
}
