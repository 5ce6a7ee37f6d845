// Package shell is an interactive terminal for running catalog statements.
package shell

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tordrt/metacatalog/internal/executor"
)

// Executor runs one statement
type Executor interface {
	Execute(ctx context.Context, text string) (*executor.Outcome, error)
}

// Run starts the shell on the given terminal streams and blocks until the
// user quits or ctx is cancelled
func Run(ctx context.Context, exec Executor, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		NewModel(ctx, exec),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run shell: %w", err)
	}
	return nil
}
