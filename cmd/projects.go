package cmd

import (
	"context"
	"fmt"

	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/pkg/store"
	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects you created or collaborate on",
		Long: `List the projects you created or collaborate on. Every successful listing is
cached locally; --offline prints the cached list without contacting the backend.

Examples:
  uptask projects
  # glob patterns are matched against project names
  uptask projects --search "web*"
  uptask projects --offline`,
		Args: cobra.NoArgs,
	}
	offline := cmd.Flags().Bool("offline", false, "Print the cached project list")
	search := cmd.Flags().StringP("search", "s", "", "Filter by name (substring or glob)")

	cmd.RunE = withApp(func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}

		var projects []models.ProjectSummary
		if *offline {
			if a.cache == nil {
				return errors.New(errors.ErrCodeInvalidInput, "the project cache is disabled")
			}
			cached, syncedAt, err := a.cache.LoadProjects(ctx, a.session.Profile().ID)
			if err != nil {
				return err
			}
			if syncedAt.IsZero() && !a.opts.JSONOutput {
				fmt.Fprintln(a.out, a.theme.Muted.Render("No cached projects. Run 'uptask projects' while online first."))
				return nil
			}
			projects = store.FilterProjects(cached, *search)
			if !a.opts.JSONOutput {
				fmt.Fprintln(a.out, a.theme.Muted.Render("cached "+syncedAt.Local().Format("2006-01-02 15:04")))
			}
		} else {
			if err := a.store.LoadProjectList(ctx); err != nil {
				return err
			}
			projects = a.store.SearchProjects(*search)
		}

		if a.opts.JSONOutput {
			return cli.PrintJSON(a.out, projects)
		}
		cli.RenderProjectList(a.out, a.theme, projects)
		return nil
	})
	return cmd
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show, create, edit and delete projects",
	}
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectEditCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with its collaborators and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			p, err := a.openProject(ctx, args[0])
			if err != nil {
				return err
			}
			if a.opts.JSONOutput {
				return cli.PrintJSON(a.out, p)
			}
			cli.RenderProject(a.out, a.theme, p, 72)
			return nil
		}),
	}
}

// projectFlags binds the editable project fields to cmd's flags.
func projectFlags(cmd *cobra.Command, in *models.ProjectInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&in.Client, "client", "", "Client the project is for")
	cmd.Flags().StringVar(&in.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description (markdown)")
}

func newProjectCreateCmd() *cobra.Command {
	var in models.ProjectInput
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a project",
		Example: `uptask project create --name Website --client ACME --due 2025-03-01 --description "Relaunch"`,
		Args:    cobra.NoArgs,
	}
	projectFlags(cmd, &in)

	cmd.RunE = withApp(func(ctx context.Context, a *app, _ []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		if err := a.store.SubmitProject(ctx, in); err != nil {
			return err
		}
		projects := a.store.State().Projects
		return a.report(projects[len(projects)-1])
	})
	return cmd
}

func newProjectEditCmd() *cobra.Command {
	var in models.ProjectInput
	cmd := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Edit a project; only the given fields change",
		Args:  cobra.ExactArgs(1),
	}
	projectFlags(cmd, &in)

	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		p, err := a.openProject(ctx, args[0])
		if err != nil {
			return err
		}
		merged := models.ProjectInputFrom(p)
		flags := cmd.Flags()
		if flags.Changed("name") {
			merged.Name = in.Name
		}
		if flags.Changed("client") {
			merged.Client = in.Client
		}
		if flags.Changed("due") {
			merged.DueDate = in.DueDate
		}
		if flags.Changed("description") {
			merged.Description = in.Description
		}

		if err := a.store.SubmitProject(ctx, merged); err != nil {
			return err
		}
		return a.report(a.store.State().Project.Summary())
	})
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			if err := a.store.DeleteProject(ctx, args[0]); err != nil {
				return err
			}
			return a.report(a.store.State().Alert)
		}),
	}
}
