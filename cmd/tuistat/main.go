// Package main provides the CLI entrypoint for tuistat.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuistat/internal/app"
	"github.com/verte-zerg/tuistat/internal/client"
	"github.com/verte-zerg/tuistat/internal/config"
	"github.com/verte-zerg/tuistat/internal/export"
	"github.com/verte-zerg/tuistat/internal/history"
	"github.com/verte-zerg/tuistat/internal/localapi"
	"github.com/verte-zerg/tuistat/internal/logging"
	"github.com/verte-zerg/tuistat/internal/stats"
	"github.com/verte-zerg/tuistat/internal/store"
	"github.com/verte-zerg/tuistat/internal/tui"
)

var (
	configPath    string
	flagEndpoint  string
	flagTimeout   time.Duration
	flagExportDir string
	flagPersist   bool
	flagCharts    string
	flagLogLevel  string

	historyClear bool
	historyLimit int

	configPrint bool

	serveAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuistat",
		Short:         "Statistics calculator for the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUICmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&flagEndpoint, "endpoint", config.DefaultEndpoint, "statistics service base URL")
	flags.DurationVar(&flagTimeout, "timeout", 0, "request timeout (0 = none)")
	flags.StringVar(&flagExportDir, "export-dir", ".", "directory for exported documents")
	flags.BoolVar(&flagPersist, "persist", false, "keep the history in SQLite")
	flags.StringVar(&flagCharts, "charts", "", "chart selection, e.g. histogramme,boxplot")
	flags.StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newComputeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// session holds what every command needs once settings are resolved.
type session struct {
	settings config.Settings
	logger   zerolog.Logger
	ctrl     *app.Controller
	closers  []io.Closer
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i].Close(); cerr != nil {
			logErrf("failed to close: %v\n", cerr)
		}
	}
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "endpoint", &settings.Endpoint, strings.TrimRight(flagEndpoint, "/"))
	applyDurationFlag(cmd, "timeout", &settings.Timeout, flagTimeout)
	applyStringFlag(cmd, "export-dir", &settings.ExportDir, flagExportDir)
	applyBoolFlag(cmd, "persist", &settings.PersistHistory, flagPersist)
	applyStringFlag(cmd, "charts", &settings.Charts, flagCharts)
	applyStringFlag(cmd, "log-level", &settings.LogLevel, flagLogLevel)
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// openSession wires logging, history, the service client and the
// controller. The TUI owns the terminal, so it logs to a file.
func openSession(cmd *cobra.Command, interactive bool) (*session, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	logOutput := settings.LogFile
	if logOutput == "" && interactive {
		logOutput = config.DefaultLogPath()
	}
	logger, logCloser, err := logging.New(logging.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: logOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	s := &session{settings: settings, logger: logger, closers: []io.Closer{logCloser}}

	var log history.Log = history.NewMemory()
	if settings.PersistHistory {
		st, err := store.Open(settings.DBPath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		s.closers = append(s.closers, st)
		log = st.History()
	}

	opts := []client.Option{client.WithLogger(logger)}
	if settings.Timeout > 0 {
		opts = append(opts, client.WithTimeout(settings.Timeout))
	}
	svc := client.New(settings.Endpoint, opts...)
	s.ctrl = app.New(svc, log,
		app.WithExporter(export.Exporter{Dir: settings.ExportDir}),
		app.WithLogger(logger),
	)
	logger.Debug().
		Str("endpoint", svc.Endpoint()).
		Bool("persist", settings.PersistHistory).
		Msg("session ready")
	return s, nil
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.NewModel(ctx, s.ctrl, s.settings.ChartKinds())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the persisted history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete every entry")
	cmd.Flags().IntVar(&historyLimit, "limit", 0, "show only the N most recent entries")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(settings.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	if historyClear {
		if err := st.DeleteEntries(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), app.MsgHistoryReset); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	entries, err := st.ListEntries(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := stats.RenderHistory(cmd.OutOrStdout(), entries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPrint, "path", false, "print the config path instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultConfigTemplate), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	if configPrint {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local reference statistics API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logging.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: settings.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	addr := settings.ServeAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return localapi.ListenAndServe(ctx, addr, localapi.NewServer(logger), logger)
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyDurationFlag(cmd *cobra.Command, name string, target *time.Duration, value time.Duration) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyBoolFlag(cmd *cobra.Command, name string, target *bool, value bool) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
