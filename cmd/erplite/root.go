package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marcus-qen/erplite/internal/auth"
	"github.com/marcus-qen/erplite/internal/config"
	"github.com/marcus-qen/erplite/internal/erp"
	"github.com/marcus-qen/erplite/internal/gateway"
	"github.com/marcus-qen/erplite/internal/guard"
	"github.com/marcus-qen/erplite/internal/session"
	"github.com/marcus-qen/erplite/internal/telemetry"
)

// app is the per-invocation wiring shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	creds *gateway.Credentials
	gw    *gateway.Client
	ctrl  *auth.Controller
	erp   *erp.API

	output  string
	closers []func(context.Context) error
}

// cli pairs the command tree with its wiring so teardown runs even when a
// command fails.
type cli struct {
	root *cobra.Command
	app  *app
}

func newCLI() *cli {
	a := &app{}
	return &cli{root: newRootCmd(a), app: a}
}

// Execute runs the selected command, then releases everything setup opened.
func (c *cli) Execute() error {
	err := c.root.Execute()
	if terr := c.app.teardown(c.root.ErrOrStderr()); err == nil {
		err = terr
	}
	return err
}

type rootFlags struct {
	configPath string
	apiURL     string
	logLevel   string
	output     string
}

func newRootCmd(a *app) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "erplite",
		Short:         "Terminal client for the ERP backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (JSON or YAML)")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "API base URL, overrides config")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "output format: table, json, yaml")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoAmICmd(a),
		newCanCmd(a),
		newMenuCmd(a),
		newClientsCmd(a),
		newEmployeesCmd(a),
		newSuppliersCmd(a),
		newProductsCmd(a),
		newSalesCmd(a),
		newMovementsCmd(a),
		newPermissionsCmd(a),
		newDashboardCmd(a),
		newReportCmd(a),
		newNotificationsCmd(a),
		newMockServerCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context, flags *rootFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := godotenv.Overload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	path := flags.configPath
	if path == "" {
		if def := config.DefaultPath(); def != "" && fileExists(def) {
			path = def
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	switch flags.output {
	case "table", "json", "yaml":
		a.output = flags.output
	default:
		return fmt.Errorf("unknown output format %q", flags.output)
	}

	a.logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.InitTraceProvider(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		a.logger.Warn("tracing disabled", zap.Error(err))
	} else {
		a.closers = append(a.closers, shutdown)
	}

	backend, err := a.sessionBackend()
	if err != nil {
		return err
	}
	var storeOpts []session.Option
	if cfg.SessionKey != "" {
		storeOpts = append(storeOpts, session.WithKey(cfg.SessionKey))
	}
	store := session.NewStore(backend, a.logger.Named("session"), storeOpts...)

	a.creds = gateway.NewCredentials()
	a.gw = gateway.New(cfg.APIURL, a.creds, gateway.WithLogger(a.logger.Named("gateway")))
	a.ctrl = auth.NewController(a.gw, a.creds, store, a.logger.Named("auth"))
	a.erp = erp.New(a.gw)

	a.ctrl.Restore(ctx)
	return nil
}

func (a *app) sessionBackend() (session.Backend, error) {
	switch strings.ToLower(a.cfg.SessionBackend) {
	case config.BackendRedis:
		rb, err := session.NewRedisBackend(a.cfg.RedisURL, "erplite:")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rb.Close() })
		return rb, nil
	default:
		dir := a.cfg.SessionPath
		if dir == "" {
			var err error
			if dir, err = session.DefaultDir(); err != nil {
				return nil, err
			}
		}
		return session.NewFileBackend(dir), nil
	}
}

func (a *app) teardown(stderr io.Writer) error {
	if a.ctrl != nil && a.ctrl.Stale() {
		fmt.Fprintln(stderr, "⚠️  The server rejected the saved session; run 'erplite login' again.")
	}
	ctx := context.Background()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// requireLogin fails unless a session is held.
func (a *app) requireLogin() error {
	if !a.ctrl.LoggedIn() {
		return errors.New("not logged in; run 'erplite login'")
	}
	return nil
}

// requirePage applies the route guard to the page backing a command.
func (a *app) requirePage(path string) error {
	d := guard.Check(a.ctrl, path)
	switch {
	case d.Allowed:
		return nil
	case d.Redirect == guard.LoginPath:
		return errors.New("not logged in; run 'erplite login'")
	default:
		return fmt.Errorf("access to %s denied", path)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
