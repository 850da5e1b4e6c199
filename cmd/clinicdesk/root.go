package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinicdesk/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinicdesk/internal/config"
	"github.com/wolfman30/clinicdesk/internal/navigation"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/internal/views"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// errLoginRequired is returned after a view redirected to login.
var errLoginRequired = errors.New("not logged in: run `clinicdesk login`")

// cli carries the lazily built runtime shared by every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	loadConfig func() *appconfig.Config
	now        func() time.Time

	rt         *bootstrap.Runtime
	redirected bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: appconfig.Load,
		now:        time.Now,
	}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinicdesk",
		Short:         "Terminal and local web console for the clinic backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.rt.Close()
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.menuCmd(),
		c.patientsCmd(),
		c.visitsCmd(),
		c.labTestsCmd(),
		c.labResultsCmd(),
		c.medicationsCmd(),
		c.appointmentsCmd(),
		c.vaccinationsCmd(),
		c.usersCmd(),
		c.rolesCmd(),
		c.reportCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	if c.rt != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := c.loadConfig()
	logger := logging.NewWithWriter(c.stderr, cfg.LogLevel)
	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c.rt = rt
	return nil
}

// deps returns view dependencies whose redirects are remembered so the
// command can tell the operator to log in.
func (c *cli) deps() views.Deps {
	return views.Deps{
		Sessions: c.rt.Sessions,
		Navigator: views.NavigatorFunc(func(path string) {
			if path == views.LoginPath {
				c.redirected = true
			}
		}),
		Logger:  c.rt.Logger,
		Metrics: c.rt.Metrics,
	}
}

// loadList runs a list view and converts its outcome into a command error.
func loadList[T any](ctx context.Context, c *cli, fetch func(context.Context) ([]T, error)) ([]T, error) {
	view := views.NewListView(views.NewScope(), c.deps(), fetch)
	if err := view.Load(ctx); err != nil {
		return nil, c.viewError(err)
	}
	return view.State().Items, nil
}

func (c *cli) viewError(err error) error {
	if c.redirected {
		return errLoginRequired
	}
	return errors.New(views.Message(err))
}

// requirePermission applies the navigation gate before a command runs.
func (c *cli) requirePermission(ctx context.Context, permission string) error {
	sess, err := session.Require(ctx, c.rt.Sessions)
	if err != nil {
		return errLoginRequired
	}
	if !navigation.Can(sess, permission) {
		return fmt.Errorf("your account lacks the %q permission", permission)
	}
	return nil
}
