package cli

import (
	"context"

	"github.com/dpshade/prompt-genie/internal/ui"
	"github.com/dpshade/prompt-genie/internal/watcher"
)

// runTUI opens the terminal UI, reloading the keyword catalog whenever its
// file changes if watching is enabled
func (a *app) runTUI(ctx context.Context) error {
	logger := a.log.Logger

	var changes <-chan watcher.Event
	if a.cfg.WatchKeywords {
		w, err := watcher.New(a.cfg.KeywordsPath(), 0, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("keyword watcher disabled")
		} else {
			defer w.Close()
			if changes, err = w.Start(ctx); err != nil {
				logger.Warn().Err(err).Msg("keyword watcher disabled")
				changes = nil
			}
		}
	}

	return ui.Run(ctx, a.svc, logger, changes)
}
