package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/util/frontmatter"
	"github.com/spf13/cobra"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit, complete and delete tasks",
		Long: `Add, edit, complete and delete the tasks of a project. Every change is
broadcast to the other clients viewing the project.

Examples:
  uptask task add 64f0c2 --name "Write copy" --priority High --due 2025-02-01
  uptask task complete 64f0c2 650a11`,
	}
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskEditCmd())
	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	return cmd
}

func taskFlags(cmd *cobra.Command, in *models.TaskInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Task name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&in.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Priority, "priority", "", "Priority: Low, Medium or High")
}

// readTaskFile reads a markdown task file. The frontmatter carries name, due
// and priority; the body is the description.
func readTaskFile(path string) (models.TaskInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.TaskInput{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "cannot read task file").
			WithDetail("path", path)
	}
	defer f.Close()

	var meta struct {
		Name     string `yaml:"name"`
		Due      string `yaml:"due"`
		Priority string `yaml:"priority"`
	}
	body, err := frontmatter.Parse(f, &meta)
	if err != nil {
		return models.TaskInput{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid task file").
			WithDetail("path", path)
	}
	return models.TaskInput{
		Name:        meta.Name,
		Description: body,
		DueDate:     meta.Due,
		Priority:    meta.Priority,
	}, nil
}

// findTask opens projectID and returns its task taskID.
func (a *app) findTask(ctx context.Context, projectID, taskID string) (models.Task, error) {
	p, err := a.openProject(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	t, ok := p.Task(taskID)
	if !ok {
		return models.Task{}, errors.New(errors.ErrCodeNotFound, "Task not found").
			WithDetail("project", projectID).
			WithDetail("task", taskID)
	}
	return t, nil
}

func newTaskAddCmd() *cobra.Command {
	var in models.TaskInput
	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a task to a project",
		Long: `Add a task to a project. Fields can come from flags or from a markdown
file whose frontmatter holds name, due and priority and whose body is the
description. Flags override the file.

Examples:
  uptask task add 64f0c2 --name "Write copy" --description "Landing page" --due 2025-02-01 --priority High
  uptask task add 64f0c2 --file write-copy.md`,
		Args: cobra.ExactArgs(1),
	}
	taskFlags(cmd, &in)
	file := cmd.Flags().StringP("file", "f", "", "Markdown task file with frontmatter")

	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		if *file != "" {
			fromFile, err := readTaskFile(*file)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("name") {
				in.Name = fromFile.Name
			}
			if !flags.Changed("description") {
				in.Description = fromFile.Description
			}
			if !flags.Changed("due") {
				in.DueDate = fromFile.DueDate
			}
			if !flags.Changed("priority") {
				in.Priority = fromFile.Priority
			}
		}
		if _, err := a.openProject(ctx, args[0]); err != nil {
			return err
		}
		in.ProjectID = args[0]
		before := len(a.store.State().Project.Tasks)
		if err := a.store.SubmitTask(ctx, in); err != nil {
			return err
		}
		tasks := a.store.State().Project.Tasks
		if len(tasks) <= before {
			return nil
		}
		return a.printTask(tasks[len(tasks)-1], "Task Created")
	})
	return cmd
}

func newTaskEditCmd() *cobra.Command {
	var in models.TaskInput
	cmd := &cobra.Command{
		Use:   "edit <project-id> <task-id>",
		Short: "Edit a task; only the given fields change",
		Args:  cobra.ExactArgs(2),
	}
	taskFlags(cmd, &in)

	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		t, err := a.findTask(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		merged := models.TaskInputFrom(t)
		flags := cmd.Flags()
		if flags.Changed("name") {
			merged.Name = in.Name
		}
		if flags.Changed("description") {
			merged.Description = in.Description
		}
		if flags.Changed("due") {
			merged.DueDate = in.DueDate
		}
		if flags.Changed("priority") {
			merged.Priority = in.Priority
		}

		if err := a.store.SubmitTask(ctx, merged); err != nil {
			return err
		}
		updated, _ := a.store.State().Project.Task(t.ID)
		return a.printTask(updated, "Task Updated")
	})
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <project-id> <task-id>",
		Short: "Toggle a task between pending and complete",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if _, err := a.findTask(ctx, args[0], args[1]); err != nil {
				return err
			}
			if err := a.store.CompleteTask(ctx, args[1]); err != nil {
				return err
			}
			updated, _ := a.store.State().Project.Task(args[1])
			msg := "Task Reopened"
			if updated.IsComplete() {
				msg = "Task Completed"
			}
			return a.printTask(updated, msg)
		}),
	}
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id> <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			t, err := a.findTask(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			a.store.HandleModalDeleteTask(t)
			if err := a.store.DeleteTask(ctx); err != nil {
				return err
			}
			return a.report(a.store.State().Alert)
		}),
	}
}

// printTask prints msg followed by the task line, or the task as JSON.
func (a *app) printTask(t models.Task, msg string) error {
	if a.opts.JSONOutput {
		return cli.PrintJSON(a.out, t)
	}
	fmt.Fprintln(a.out, a.theme.RenderAlert(models.SuccessAlert(msg)))
	fmt.Fprintln(a.out, "  "+cli.TaskLine(a.theme, t))
	return nil
}
