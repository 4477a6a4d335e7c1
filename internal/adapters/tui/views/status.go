package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"assetdb/internal/adapters/tui/styles"
	"assetdb/internal/application/resolver"
	"assetdb/internal/application/tracker"
)

// StatusKeyMap defines key bindings for the status view
type StatusKeyMap struct {
	Reconcile key.Binding
	Search    key.Binding
	Quit      key.Binding
}

var StatusKeys = StatusKeyMap{
	Reconcile: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "reconcile"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type statusTickMsg time.Time

// StatusModel shows the tracker's crawl progress and the result of the
// last reconciliation pass.
type StatusModel struct {
	ViewState
	res  *resolver.Resolver
	tr   *tracker.Tracker
	root string

	spin spinner.Model
	prog progress.Model

	reconciling bool
}

// NewStatusModel creates the status view model
func NewStatusModel(res *resolver.Resolver, tr *tracker.Tracker, root string) *StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.MutedText

	return &StatusModel{
		res:  res,
		tr:   tr,
		root: root,
		spin: s,
		prog: progress.New(progress.WithDefaultGradient()),
	}
}

// Init initializes the status view
func (m *StatusModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, statusTick())
}

func statusTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// Update handles messages for the status view
func (m *StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusTickMsg:
		return m, statusTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case reconcileDoneMsg:
		m.reconciling = false
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
		} else {
			m.SetMessage(fmt.Sprintf("reconciled: %d seen, %d applied, %d conflicts",
				msg.stats.EventsSeen, msg.stats.Applied, msg.stats.Conflicts), false)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, StatusKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, StatusKeys.Search):
			return m, func() tea.Msg { return SwitchToSearchMsg{} }

		case key.Matches(msg, StatusKeys.Reconcile):
			if m.reconciling {
				return m, nil
			}
			m.reconciling = true
			m.ClearMessage()
			return m, m.reconcile()
		}
	}
	return m, nil
}

func (m *StatusModel) reconcile() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.res.Update()
		return reconcileDoneMsg{stats: stats, err: err}
	}
}

// View renders the status view
func (m *StatusModel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("assetdb"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render(m.root))
	sb.WriteString("\n\n")

	if m.tr.IsTracking() {
		total := m.tr.GetTrackingTotal()
		done := m.tr.GetTrackingProgress()
		sb.WriteString(m.spin.View())
		sb.WriteString(fmt.Sprintf(" tracking  %d/%d\n", done, total))
		if total > 0 {
			sb.WriteString(m.prog.ViewAs(float64(done) / float64(total)))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(styles.MutedText.Render("tracker idle"))
		sb.WriteString("\n")
	}

	if m.reconciling {
		sb.WriteString(m.spin.View())
		sb.WriteString(" reconciling\n")
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
		StatusKeys.Reconcile.Help().Key, StatusKeys.Reconcile.Help().Desc,
		StatusKeys.Search.Help().Key, StatusKeys.Search.Help().Desc,
		StatusKeys.Quit.Help().Key, StatusKeys.Quit.Help().Desc,
	))

	return styles.App.Render(sb.String())
}

func renderHelp(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts,
			styles.HelpKey.Render(pairs[i])+" "+styles.HelpDesc.Render(pairs[i+1]))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}
