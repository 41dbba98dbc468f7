// Package cmd holds the uptask command tree.
package cmd

import (
	"context"
	"os"

	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/version"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the uptask command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("uptask", "Collaborative project and task tracking from the terminal")
	root.Long = `uptask keeps a team's projects and tasks in sync. Changes made by one
collaborator appear immediately for everyone viewing the same project.`
	root.Version = version.Version

	root.AddCommand(newRegisterCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newConfirmCmd())
	root.AddCommand(newForgotCmd())
	root.AddCommand(newProjectsCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newTaskCmd())
	root.AddCommand(newCollaboratorCmd())
	root.AddCommand(newBoardCmd())
	root.AddCommand(newRelayCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(cli.NewVersionCommand())
	return root
}

// Execute runs the command tree and reports a failure through the error
// handler. It returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	verbose := false
	if cmd != nil {
		verbose = cli.GetOptions(cmd).Verbose
	}
	cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
	return 1
}
