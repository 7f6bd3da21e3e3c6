package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the chat screen until the user quits or ctx is canceled.
func Run(ctx context.Context, engine Engine, opts ...Option) error {
	opts = append([]Option{WithContext(ctx)}, opts...)
	program := tea.NewProgram(
		NewModel(engine, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
