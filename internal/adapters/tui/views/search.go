package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"assetdb/internal/adapters/tui/styles"
	"assetdb/internal/application/resolver"
	"assetdb/internal/domain"
)

// SearchKeyMap defines key bindings for the search view
type SearchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Copy   key.Binding
	Cancel key.Binding
}

var SearchKeys = SearchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Copy: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy id"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

const maxResults = 20

// SearchModel searches managed files by path substring; selecting a result
// copies its asset ID to the clipboard.
type SearchModel struct {
	ViewState
	res     *resolver.Resolver
	input   textinput.Model
	results []*domain.ManagedFile
	cursor  int
}

// NewSearchModel creates a new search view model
func NewSearchModel(res *resolver.Resolver) *SearchModel {
	input := textinput.New()
	input.Placeholder = "Search paths..."
	input.Focus()

	return &SearchModel{
		res:   res,
		input: input,
	}
}

// Init initializes the search view
func (m *SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

// Reset clears the query and results
func (m *SearchModel) Reset() {
	m.input.SetValue("")
	m.results = nil
	m.cursor = 0
	m.ClearMessage()
	m.input.Focus()
}

// Update handles messages for the search view
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultsMsg:
		// Stale results from an earlier keystroke are dropped.
		if msg.query != m.input.Value() {
			return m, nil
		}
		m.results = msg.files
		if m.cursor >= len(m.results) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, SearchKeys.Cancel):
			return m, func() tea.Msg { return SwitchToStatusMsg{} }

		case key.Matches(msg, SearchKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, SearchKeys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, SearchKeys.Copy):
			if m.cursor >= 0 && m.cursor < len(m.results) {
				file := m.results[m.cursor]
				if err := clipboard.WriteAll(file.ID.Hex()); err != nil {
					m.SetMessage(fmt.Sprintf("clipboard: %v", err), true)
				} else {
					m.SetMessage(fmt.Sprintf("copied %s", file.ID.Hex()), false)
				}
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, tea.Batch(cmd, m.search(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *SearchModel) search(query string) tea.Cmd {
	return func() tea.Msg {
		if query == "" {
			return searchResultsMsg{query: query}
		}
		files, err := m.res.SearchFiles(query)
		if err != nil {
			return searchResultsMsg{query: query}
		}
		if len(files) > maxResults {
			files = files[:maxResults]
		}
		return searchResultsMsg{query: query, files: files}
	}
}

// View renders the search view
func (m *SearchModel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("search"))
	sb.WriteString("\n")
	sb.WriteString(styles.InputField.Render(m.input.View()))
	sb.WriteString("\n\n")

	for i, f := range m.results {
		id := styles.RowID.Render(f.ID.Hex())
		line := fmt.Sprintf("%s  %s", id, f.Path)
		if i == m.cursor {
			line = styles.RowSelected.Render(fmt.Sprintf("%s  %s", f.ID.Hex(), f.Path))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(m.results) == 0 && m.input.Value() != "" {
		sb.WriteString(styles.MutedText.Render("no matches"))
		sb.WriteString("\n")
	}

	if m.Message != "" {
		sb.WriteString("\n")
		if m.MessageErr {
			sb.WriteString(styles.ErrorMsg.Render(m.Message))
		} else {
			sb.WriteString(styles.Success.Render(m.Message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderHelp(
		SearchKeys.Copy.Help().Key, SearchKeys.Copy.Help().Desc,
		SearchKeys.Cancel.Help().Key, SearchKeys.Cancel.Help().Desc,
	))

	return styles.App.Render(sb.String())
}
