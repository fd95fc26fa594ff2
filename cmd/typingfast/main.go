// Package main provides the CLI entrypoint for typingfast.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/api"
	"github.com/verte-zerg/typingfast/internal/auth"
	"github.com/verte-zerg/typingfast/internal/authui"
	"github.com/verte-zerg/typingfast/internal/config"
	"github.com/verte-zerg/typingfast/internal/logging"
	"github.com/verte-zerg/typingfast/internal/screen"
	"github.com/verte-zerg/typingfast/internal/statsui"
	"github.com/verte-zerg/typingfast/internal/store"
	"github.com/verte-zerg/typingfast/internal/tui"
)

var (
	flagAPIURL     string
	flagAPITimeout time.Duration
	flagLogLevel   string

	practiceWords int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typingfast",
		Short:         "Typing speed practice in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", config.DefaultAPIURL, "backend base URL")
	rootCmd.PersistentFlags().DurationVar(&flagAPITimeout, "api-timeout", config.DefaultAPITimeout, "backend request timeout")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&practiceWords, "words", config.DefaultWords, "words per practice text")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMockServerCmd())

	return rootCmd
}

// appEnv holds everything a command needs to talk to the backend.
type appEnv struct {
	settings config.Settings
	logger   *zap.Logger
	store    *store.Store
	client   *api.Client
	session  *auth.Session
}

// loadSettings merges config file, .env, environment and flags, in
// increasing order of precedence.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.Load(config.DefaultConfigPath(), ".env")
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "api-url", &settings.APIBaseURL, flagAPIURL)
	applyDurationConfig(cmd, "api-timeout", &settings.APITimeout, flagAPITimeout)
	applyStringConfig(cmd, "log-level", &settings.LogLevel, flagLogLevel)
	if cmd.Flags().Lookup("words") != nil {
		applyIntConfig(cmd, "words", &settings.Words, practiceWords)
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func openEnv(cmd *cobra.Command) (*appEnv, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Level: settings.LogLevel, Path: settings.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	client, err := api.New(settings.APIBaseURL,
		api.WithTimeout(settings.APITimeout),
		api.WithLogger(logger.Named("api")),
	)
	if err != nil {
		_ = st.Close()
		_ = logger.Sync()
		return nil, err
	}
	session := auth.NewSession(st, client, logger.Named("auth"))
	client.SetAuthorizer(session)
	if err := session.Hydrate(commandContext(cmd)); err != nil {
		logger.Warn("failed to restore session", zap.Error(err))
	}
	logger.Debug("environment ready",
		zap.String("api", client.BaseURL()),
		zap.Stringer("auth", session.Status()),
	)
	return &appEnv{settings: settings, logger: logger, store: st, client: client, session: session}, nil
}

func (e *appEnv) close() {
	if err := e.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	_ = e.logger.Sync()
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	return runApp(env, screen.RouteTyping)
}

func runApp(env *appEnv, start screen.Route) error {
	logger := env.logger
	screens := map[screen.Route]tui.ScreenFactory{
		screen.RouteTyping: func() screen.Screen {
			return tui.NewModel(tui.Deps{
				Texts:   env.client,
				Scorer:  env.client,
				Results: env.store,
				Auth:    env.session,
				Logger:  logger.Named("typing"),
			}, env.settings.Words)
		},
		screen.RouteDashboard: func() screen.Screen {
			return statsui.NewModel(statsui.Deps{Source: env.client, Logger: logger.Named("dashboard")})
		},
		screen.RouteLogin: func() screen.Screen {
			return authui.NewLogin(env.session, logger.Named("authui"))
		},
		screen.RouteSignup: func() screen.Screen {
			return authui.NewSignup(env.session, logger.Named("authui"))
		},
	}
	app := tui.NewApp(env.session, screens, start, logger)
	defer app.Shutdown()

	logger.Info("starting tui", zap.String("route", string(start)), zap.Int("words", env.settings.Words))
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyIntConfig(cmd *cobra.Command, name string, target *int, value int) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value time.Duration) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func requireLogin(env *appEnv) error {
	if !env.session.IsAuthenticated() {
		return fmt.Errorf("not logged in (run: typingfast login)")
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
