package cmd

import (
	"context"
	"fmt"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/spf13/cobra"
)

func newCollaboratorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collaborator",
		Aliases: []string{"collab"},
		Short:   "Add and remove project collaborators",
	}
	cmd.AddCommand(newCollaboratorAddCmd())
	cmd.AddCommand(newCollaboratorRemoveCmd())
	return cmd
}

func newCollaboratorAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <project-id> <email>",
		Short: "Look up a user by email and add them to a project",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if _, err := a.openProject(ctx, args[0]); err != nil {
				return err
			}
			if err := a.store.SubmitCollaborator(ctx, args[1]); err != nil {
				return err
			}
			found := a.store.State().PendingCollaborator
			if !a.opts.JSONOutput && !found.IsZero() {
				fmt.Fprintf(a.out, "Found %s <%s>\n", found.Name, found.Email)
			}
			if err := a.store.AddCollaborator(ctx, args[1]); err != nil {
				return err
			}
			return a.report(found)
		}),
	}
}

func newCollaboratorRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project-id> <collaborator-id|email>",
		Short: "Remove a collaborator from a project",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			p, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			var target models.Collaborator
			for _, c := range p.Collaborators {
				if c.ID == args[1] || c.Email == args[1] {
					target = c
					break
				}
			}
			if target.IsZero() {
				return errors.New(errors.ErrCodeNotFound, "User not found").WithDetail("collaborator", args[1])
			}

			a.store.HandleModalDeleteCollaborator(target)
			if err := a.store.DeleteCollaborator(ctx); err != nil {
				return err
			}
			return a.report(a.store.State().Alert)
		}),
	}
}
