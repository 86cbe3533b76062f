package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/dpshade/prompt-genie/internal/service"
	"github.com/dpshade/prompt-genie/internal/watcher"
)

// Run starts the full-screen interface and blocks until the user quits or
// ctx is cancelled
func Run(ctx context.Context, svc *service.Service, logger zerolog.Logger, changes <-chan watcher.Event) error {
	model, err := NewModel(svc, logger, changes)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
