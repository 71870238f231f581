package main

import (
	"context"
	"fmt"

	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/Varda003/EmoTune/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive liked-song browser for one account.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, a, cmd.String("user"))
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, user.ID, cmd.String("language"), a.ledger, a.recommender)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
