package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/config"
	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/internal/cache"
	"github.com/grovetools/uptask/pkg/account"
	"github.com/grovetools/uptask/pkg/channel"
	"github.com/grovetools/uptask/pkg/gateway"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/pkg/paths"
	"github.com/grovetools/uptask/pkg/session"
	"github.com/grovetools/uptask/pkg/store"
	"github.com/grovetools/uptask/tui/theme"
	"github.com/grovetools/uptask/util/pathutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds the components a command works with. Build it with newApp and
// release it with Close.
type app struct {
	cfg     *config.Config
	session *session.Session
	gateway *gateway.Client
	channel *channel.Channel
	store   *store.Store
	account *account.Service
	cache   *cache.DB

	// onNavigate receives the store's route changes. Set it before the store is used.
	onNavigate func(route string)

	opts   cli.CommandOptions
	out    io.Writer
	theme  *theme.Theme
	logger *logrus.Entry
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	sess, err := session.OpenDefault()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		session: sess,
		opts:    cli.GetOptions(cmd),
		out:     cmd.OutOrStdout(),
		theme:   theme.DefaultTheme,
		logger:  cli.GetLogger(cmd),
	}
	a.gateway = gateway.New(cfg.BackendURL, sess)
	a.channel = channel.New(cfg.ChannelURL)
	a.account = account.New(a.gateway, sess)

	opts := store.OptionsFromConfig(cfg)
	opts.UserID = func() string { return sess.Profile().ID }
	opts.Navigator = store.NavigatorFunc(func(route string) {
		a.logger.WithField("route", route).Debug("navigate")
		if a.onNavigate != nil {
			a.onNavigate(route)
		}
	})
	if cfg.CacheEnabled() {
		path := paths.CachePath()
		if cfg.Cache.Path != "" {
			path, err = pathutil.Expand(cfg.Cache.Path)
		}
		var db *cache.DB
		if err == nil {
			db, err = cache.Open(path)
		}
		if err != nil {
			a.logger.WithError(err).Warn("project cache unavailable")
		} else {
			a.cache = db
			opts.Cache = db
		}
	}
	a.store = store.New(a.gateway, a.channel, opts)
	return a, nil
}

// Close leaves any joined room and closes the cache.
func (a *app) Close() {
	a.store.CloseSession()
	if a.cache != nil {
		a.cache.Close()
	}
}

// requireSession fails fast for commands that only make sense when logged in.
func (a *app) requireSession() error {
	if !a.session.LoggedIn() {
		return errors.AuthAbsent()
	}
	return nil
}

// openProject loads a project and joins its room so that mutations made
// through the store reach the other clients viewing it.
func (a *app) openProject(ctx context.Context, id string) (*models.Project, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	if err := a.store.OpenProject(ctx, id); err != nil {
		return nil, err
	}
	return a.store.State().Project, nil
}

// report prints the store's alert, or v as JSON with --json.
func (a *app) report(v interface{}) error {
	if a.opts.JSONOutput {
		return cli.PrintJSON(a.out, v)
	}
	if line := a.theme.RenderAlert(a.store.State().Alert); line != "" {
		_, err := io.WriteString(a.out, line+"\n")
		return err
	}
	return nil
}

func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd.Context(), a, args)
	}
}

// printMessage prints a plain success message, or {"msg": ...} with --json.
func (a *app) printMessage(msg string) error {
	if a.opts.JSONOutput {
		return cli.PrintJSON(a.out, map[string]string{"msg": msg})
	}
	_, err := fmt.Fprintln(a.out, a.theme.RenderAlert(models.SuccessAlert(msg)))
	return err
}
