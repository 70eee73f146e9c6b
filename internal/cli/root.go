// Package cli wires configuration, logging and storage together behind the
// scheduler-tui command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pdxmph/scheduler-tui/internal/auth"
	"github.com/pdxmph/scheduler-tui/internal/config"
	"github.com/pdxmph/scheduler-tui/internal/logger"
	"github.com/pdxmph/scheduler-tui/internal/planner"
	"github.com/pdxmph/scheduler-tui/internal/storage"

	// Backends register themselves with the storage registry
	_ "github.com/pdxmph/scheduler-tui/internal/storage/memory"
	_ "github.com/pdxmph/scheduler-tui/internal/storage/mongodb"
	_ "github.com/pdxmph/scheduler-tui/internal/storage/postgres"
	_ "github.com/pdxmph/scheduler-tui/internal/storage/sqlite"
)

// app holds what every command shares: flags, loaded config and the log file
type app struct {
	configPath string
	email      string
	password   string

	cfg       *config.Config
	logCloser io.Closer
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	a := &app{}
	err := a.command().Execute()
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "scheduler-tui",
		Short: "A gamified daily scheduler for the terminal",
		Long: `Plan your day in hourly slots, tick tasks off and earn XP.
Run without a sub-command to open the interactive planner.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default ~/.config/scheduler-tui/config.toml)")
	flags.StringVar(&a.email, "email", "", "Account email (or SCHEDULER_EMAIL)")
	flags.StringVar(&a.password, "password", "", "Account password (or SCHEDULER_PASSWORD)")

	root.AddCommand(
		a.initCmd(),
		a.signupCmd(),
		a.addCmd(),
		a.listCmd(),
		a.toggleCmd(),
		a.deleteCmd(),
		a.statsCmd(),
		a.backendsCmd(),
	)
	return root
}

// setup loads .env, the config file and the logger
func (a *app) setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a.logCloser, err = logger.Init(logger.Options{
		Service: "scheduler-tui",
		Level:   a.cfg.Log.Level,
		Path:    a.cfg.Log.Path,
	})
	if err != nil {
		return err
	}
	logger.For("cli").WithField("backend", a.cfg.Storage.Backend).Debug("configured")
	return nil
}

func (a *app) teardown() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *app) openBackend() (storage.Backend, error) {
	backend, err := storage.Open(a.cfg.Storage.Backend, storage.Options{
		Path:     a.cfg.Storage.Path,
		DSN:      a.cfg.Postgres.DSN,
		URI:      a.cfg.Mongo.URI,
		Database: a.cfg.Mongo.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", a.cfg.Storage.Backend, err)
	}
	return backend, nil
}

func (a *app) plannerOptions(notify func(planner.Notice)) planner.Options {
	return planner.Options{
		Debounce:       a.cfg.Persist.Debounce.Duration,
		SignalDuration: a.cfg.UI.SignalDuration.Duration,
		Theme:          a.cfg.UI.Theme,
		Notify:         notify,
	}
}

func (a *app) credentials() (string, string, error) {
	email, password := a.email, a.password
	if email == "" {
		email = os.Getenv("SCHEDULER_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SCHEDULER_PASSWORD")
	}
	if email == "" || password == "" {
		return "", "", errors.New("credentials required: pass --email and --password or set SCHEDULER_EMAIL and SCHEDULER_PASSWORD")
	}
	return email, password, nil
}

// session is a signed-in planner for one non-interactive command
type session struct {
	backend storage.Backend
	auth    *auth.Local
	planner *planner.Planner
}

// openSession opens storage and, when login is set, signs in with the
// configured credentials. Notices go to errOut.
func (a *app) openSession(ctx context.Context, errOut io.Writer, login bool) (*session, error) {
	backend, err := a.openBackend()
	if err != nil {
		return nil, err
	}

	svc := auth.NewLocal(backend)
	p := planner.New(backend, svc, a.plannerOptions(func(n planner.Notice) {
		fmt.Fprintf(errOut, "%s: %s\n", n.Title, n.Body)
	}))
	p.Start()
	s := &session{backend: backend, auth: svc, planner: p}

	if !login {
		return s, nil
	}

	email, password, err := a.credentials()
	if err != nil {
		s.close()
		return nil, err
	}
	if _, err := svc.LogIn(ctx, email, password); err != nil {
		s.close()
		return nil, errors.New(auth.Message(err))
	}
	if !p.Snapshot().Ready {
		s.close()
		return nil, errors.New("could not load your schedule")
	}
	return s, nil
}

// save writes pending changes now instead of waiting for the debounce
func (s *session) save() error {
	if err := s.planner.Flush(); err != nil {
		return fmt.Errorf("saving changes: %w", err)
	}
	return nil
}

func (s *session) close() error {
	return errors.Join(s.planner.Close(), s.backend.Close())
}
