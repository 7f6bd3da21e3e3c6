package tui

import "github.com/charmbracelet/lipgloss"

const (
	spotifyGreen = lipgloss.Color("#1DB954")
	muted        = lipgloss.Color("#888888")
	botGray      = lipgloss.Color("#2A2A2A")
)

// Styles holds the lipgloss styles of the chat screen.
type Styles struct {
	Title     lipgloss.Style
	UserMsg   lipgloss.Style
	BotMsg    lipgloss.Style
	Status    lipgloss.Style
	Help      lipgloss.Style
	Panel     lipgloss.Style
	Focused   lipgloss.Style
	InputLine lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(spotifyGreen),
		UserMsg: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(spotifyGreen).
			Padding(0, 1),
		BotMsg: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EAEAEA")).
			Background(botGray).
			Padding(0, 1),
		Status:    lipgloss.NewStyle().Italic(true).Foreground(muted),
		Help:      lipgloss.NewStyle().Foreground(muted),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted),
		Focused:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(spotifyGreen),
		InputLine: lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(muted),
	}
}
