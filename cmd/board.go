package cmd

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/uptask/internal/board"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/pkg/session"
	"github.com/grovetools/uptask/state"
	"github.com/spf13/cobra"
)

func newBoardCmd() *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "board [project-id]",
		Short: "Open the live project board",
		Long: `Open the interactive board. Without a project id it starts on the project
list. Task changes made by other clients in the open project appear as they
happen. Logging out from another terminal closes the board.

Examples:
  uptask board
  uptask board 64f0c2
  uptask board --resume`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			var projectID string
			if len(args) == 1 {
				projectID = args[0]
			} else if resume {
				last, err := state.GetString(state.KeyLastProject)
				if err != nil {
					a.logger.WithError(err).Warn("failed to read last project")
				}
				projectID = last
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			// Stderr log lines would tear the alt screen; the file sink keeps them.
			logging.SetGlobalOutput(io.Discard)
			defer logging.SetGlobalOutput(os.Stderr)

			p := tea.NewProgram(board.New(ctx, a.store, projectID), tea.WithAltScreen(), tea.WithContext(ctx))
			a.onNavigate = func(route string) {
				p.Send(board.NavigateMsg{Route: route})
			}

			w, err := session.NewWatcher(a.session, 0, func(loggedIn bool) {
				if !loggedIn {
					a.store.CloseSession()
					p.Quit()
				}
			})
			if err != nil {
				a.logger.WithError(err).Warn("session watcher unavailable")
			} else {
				go w.Start(ctx)
			}

			_, err = p.Run()
			if open := a.store.State().Project; open != nil {
				if serr := state.Set(state.KeyLastProject, open.ID); serr != nil {
					a.logger.WithError(serr).Warn("failed to remember last project")
				}
			}
			if err == tea.ErrProgramKilled {
				return nil
			}
			return err
		}),
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "Reopen the project the board showed last")
	return cmd
}
