// Package tui implements the terminal UI of the billkeeper client: tabbed
// bill and budget lists, a create form, and a live sync status line driven
// by the orchestrator's state subscription.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ykarpov/billkeeper/internal/client"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/models"
)

type TUI struct {
	app *client.App
}

func New(app *client.App, _ *logger.Logger) (*TUI, error) {
	return &TUI{app: app}, nil
}

// Run starts the main loop and blocks until the user quits. Sync state
// changes are forwarded into the program through a channel so the status
// line updates live while background passes run.
func (t *TUI) Run(ctx context.Context) error {
	states := make(chan models.SyncState, 8)
	t.app.OnSyncStateChange(func(state models.SyncState) {
		select {
		case states <- state:
		default:
		}
	})

	model := newMainModel(ctx, t.app, states)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
