package cmd

import (
	"context"
	"fmt"

	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/state"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. Missing values are prompted for; the password is
never echoed. A confirmation link is sent to the email address.

Examples:
  uptask register --name Ada --email ada@example.com`,
		Args: cobra.NoArgs,
	}
	name := cmd.Flags().String("name", "", "Display name")
	email := cmd.Flags().String("email", "", "Email address")

	cmd.RunE = withApp(func(ctx context.Context, a *app, _ []string) error {
		p := cli.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
		in := models.RegisterInput{Name: *name, Email: *email}
		var err error
		if in.Name == "" {
			if in.Name, err = p.Line("Name", ""); err != nil {
				return err
			}
		}
		if in.Email == "" {
			if in.Email, err = p.Line("Email", ""); err != nil {
				return err
			}
		}
		if in.Password, err = p.Secret("Password"); err != nil {
			return err
		}
		if in.RepeatPassword, err = p.Secret("Repeat password"); err != nil {
			return err
		}

		msg, err := a.account.Register(ctx, in)
		if err != nil {
			return err
		}
		return a.printMessage(msg)
	})
	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		Args:  cobra.NoArgs,
	}
	email := cmd.Flags().String("email", "", "Email address")

	cmd.RunE = withApp(func(ctx context.Context, a *app, _ []string) error {
		p := cli.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
		in := models.LoginInput{Email: *email}
		var err error
		if in.Email == "" {
			if in.Email, err = p.Line("Email", ""); err != nil {
				return err
			}
		}
		if in.Password, err = p.Secret("Password"); err != nil {
			return err
		}

		profile, err := a.account.Login(ctx, in)
		if err != nil {
			return err
		}
		if a.opts.JSONOutput {
			return cli.PrintJSON(a.out, profile)
		}
		return a.printMessage(fmt.Sprintf("Logged in as %s <%s>", profile.Name, profile.Email))
	})
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget cached projects",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			userID := a.session.Profile().ID
			if err := a.account.Logout(a.store); err != nil {
				return err
			}
			if a.cache != nil && userID != "" {
				if err := a.cache.Forget(ctx, userID); err != nil {
					a.logger.WithError(err).Warn("failed to clear project cache")
				}
			}
			if err := state.Delete(state.KeyLastProject); err != nil {
				a.logger.WithError(err).Warn("failed to clear board state")
			}
			return a.printMessage("Logged out")
		}),
	}
}

func newConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <token>",
		Short: "Confirm an account with the token from the confirmation email",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			msg, err := a.account.Confirm(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		}),
	}
}

func newForgotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot <email>",
		Short: "Send password recovery instructions",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			msg, err := a.account.ForgotPassword(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		}),
	}
}
