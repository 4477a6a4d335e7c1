package styles

import (
	"github.com/charmbracelet/lipgloss"

	"assetdb/internal/domain"
)

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Engine type colors
	TypeEntity  = lipgloss.Color("#8B5CF6") // Violet
	TypeShader  = lipgloss.Color("#EC4899") // Pink
	TypeTexture = lipgloss.Color("#F97316") // Orange
	TypeWorld   = lipgloss.Color("#6366F1") // Indigo
	TypeZone    = lipgloss.Color("#60A5FA") // Blue

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Result rows
	RowID = lipgloss.NewStyle().
		Foreground(Secondary)

	RowDeleted = lipgloss.NewStyle().
			Foreground(Muted).
			Strikethrough(true)

	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	StatusKey = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Padding(0, 1).
			MarginRight(1)

	StatusText = lipgloss.NewStyle().
			Foreground(Muted)

	// Input styles
	InputField = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// TypeColor returns the color for an engine type.
func TypeColor(t domain.EngineType) lipgloss.Color {
	switch t {
	case domain.EngineTypeEntity:
		return TypeEntity
	case domain.EngineTypeShader:
		return TypeShader
	case domain.EngineTypeTexture:
		return TypeTexture
	case domain.EngineTypeWorld:
		return TypeWorld
	case domain.EngineTypeZone:
		return TypeZone
	default:
		return Primary
	}
}
