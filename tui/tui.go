// Package tui renders the Encrypted Internet status panel in a terminal.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/eip"
	"github.com/yllada/bitmask-client/services"
)

var log = common.NamedLogger("tui")

// Run shows the status screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc *services.Services) error {
	cfg := svc.Config
	model := New(ctx, svc.EIP, svc.Mail, cfg.EIP.Provider, cfg.EIP.ConfigPath != "")

	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	svc.EIP.SetOnStateChanged(func(data eip.Data) {
		program.Send(StateMsg{Data: data})
	})
	svc.EIP.SetOnStatusChanged(func(data eip.Data) {
		program.Send(StatusMsg{Data: data})
	})
	svc.EIP.SetOnStopped(func(err error) {
		program.Send(StoppedMsg{Err: err})
	})

	if cfg.Mail.UserID != "" {
		go func() {
			err := svc.StartMail(ctx)
			if err != nil {
				log.Error("Starting mail: %v", err)
			}
			program.Send(MailStartedMsg{Err: err})
		}()
	}

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
