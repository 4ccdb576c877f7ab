// Package main provides the CLI entrypoint for molishai.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/config"
	"github.com/verte-zerg/molishai/internal/logging"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/metrics"
	"github.com/verte-zerg/molishai/internal/model"
	"github.com/verte-zerg/molishai/internal/modelfile"
	"github.com/verte-zerg/molishai/internal/password"
	"github.com/verte-zerg/molishai/internal/store"
	"github.com/verte-zerg/molishai/internal/tui"
)

var (
	genBits        string
	genRows        int
	genModel       string
	genNoAudit     bool
	genDB          string
	genMetricsFile string

	logLevel string
	logFile  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "molishai",
		Short:         "Pronounceable passwords from random bits",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGenerateCmd,
	}
	addGenerateFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.Defaults().LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addGenerateFlags(cmd *cobra.Command) {
	d := config.Defaults()
	cmd.Flags().StringVar(&genBits, "bits", strconv.Itoa(d.Bits), fmt.Sprintf("entropy bits per password (0-%d)", config.MaxBits))
	cmd.Flags().IntVar(&genRows, "rows", d.Rows, "number of passwords")
	cmd.Flags().StringVar(&genModel, "model", "", "model file (default: built-in reference model)")
	cmd.Flags().BoolVar(&genNoAudit, "no-audit", !d.Audit, "do not record generation counts")
	cmd.Flags().StringVar(&genDB, "db", d.DBPath, "audit database path")
	cmd.Flags().StringVar(&genMetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
}

// session carries everything a generating command needs.
type session struct {
	cfg       model.Config
	logger    *slog.Logger
	modelName string
	model     *markov.Model
	metrics   *metrics.Metrics
	pending   []model.GenerationRecord
	closeLog  func() error
}

func openSession(cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	gen := fileCfg.Generate
	if gen.Bits != nil && !cmd.Flags().Changed("bits") {
		genBits = strconv.Itoa(*gen.Bits)
	}
	applyIntConfig(cmd, "rows", &genRows, gen.Rows)
	applyStringConfig(cmd, "model", &genModel, gen.Model)
	applyStringConfig(cmd, "db", &genDB, gen.DB)
	applyStringConfig(cmd, "metrics-file", &genMetricsFile, gen.MetricsFile)
	applyStringConfig(cmd, "log-level", &logLevel, gen.LogLevel)
	applyStringConfig(cmd, "log-file", &logFile, gen.LogFile)
	logLevel = logging.NormalizeLevel(logLevel)
	if gen.Audit != nil && !cmd.Flags().Changed("no-audit") {
		genNoAudit = !*gen.Audit
	}

	logger, closeLog, err := logging.New(logging.Options{Level: logLevel, File: logFile})
	if err != nil {
		return nil, err
	}
	s := &session{logger: logger, closeLog: closeLog}

	numBits, err := config.ResolveBits(genBits)
	if err != nil {
		logger.Warn("ignoring requested bits", "error", err, "bits", numBits)
	}
	s.cfg = model.Config{
		Bits:        numBits,
		Rows:        genRows,
		ModelPath:   genModel,
		Audit:       !genNoAudit,
		DBPath:      genDB,
		MetricsFile: genMetricsFile,
		LogLevel:    logLevel,
		LogFile:     logFile,
	}
	if err := config.Validate(s.cfg); err != nil {
		s.close()
		return nil, err
	}

	s.model, err = modelfile.Load(s.cfg.ModelPath)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	s.modelName = modelName(s.cfg.ModelPath)
	if s.cfg.MetricsFile != "" {
		s.metrics = metrics.New(s.modelName)
	}
	logger.Debug("session ready", "model", s.modelName, "bits", s.cfg.Bits, "rows", s.cfg.Rows, "audit", s.cfg.Audit)
	return s, nil
}

func modelName(path string) string {
	if path == "" {
		return modelfile.ReferenceName
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// generator wires the secure source, metrics and the audit log together.
func (s *session) generator() (*password.Generator, error) {
	src, err := bits.NewCryptoSource(nil)
	if err != nil {
		return nil, err
	}
	opts := []password.Option{}
	if s.metrics != nil {
		opts = append(opts, password.WithObserver(s.metrics.Observer()))
	}
	if s.cfg.Audit {
		opts = append(opts, password.WithObserver(func(r password.Result) {
			s.pending = append(s.pending, r.Record(s.modelName, time.Now()))
		}))
	}
	return password.New(src, s.model, opts...), nil
}

// finish writes the audit records and metrics gathered so far. Failures are
// logged; the passwords are already shown.
func (s *session) finish(ctx context.Context) {
	if s.cfg.Audit && len(s.pending) > 0 {
		if err := s.flushAudit(ctx); err != nil {
			s.logger.Warn("failed to record generations", "error", err)
		}
	}
	if s.metrics != nil {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			s.logger.Warn("failed to write metrics", "error", err, "path", s.cfg.MetricsFile)
		}
	}
}

func (s *session) flushAudit(ctx context.Context) error {
	st, err := store.Open(s.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			s.logger.Warn("failed to close db", "error", cerr)
		}
	}()
	ids, err := st.InsertGenerations(ctx, s.pending)
	if err != nil {
		return err
	}
	s.logger.Debug("recorded generations", "count", len(ids))
	s.pending = nil
	return nil
}

func (s *session) close() {
	if err := s.closeLog(); err != nil {
		logErrf("failed to close log file: %v\n", err)
	}
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	gen, err := s.generator()
	if err != nil {
		return err
	}
	results, err := gen.Rows(s.cfg.Bits, s.cfg.Rows)
	if err != nil {
		return fmt.Errorf("failed to generate passwords: %w", err)
	}
	werr := writeRows(cmd.OutOrStdout(), results, s.cfg.Bits)
	for i := range results {
		results[i].Wipe()
	}
	if werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}
	s.finish(cmd.Context())
	return nil
}

// writeRows prints one "hex  password  (entropy)" line per result. The hex
// column is padded to the width of numBits.
func writeRows(w io.Writer, results []password.Result, numBits int) error {
	hexWidth := max((numBits+3)/4, 1)
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%-*s  %s  (%d)\n", hexWidth, r.Hex(), r.Password, r.Entropy()); err != nil {
			return err
		}
	}
	return nil
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse passwords interactively",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
	addGenerateFlags(cmd)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	gen, err := s.generator()
	if err != nil {
		return err
	}
	m := tui.NewModel(gen, s.cfg.Bits, config.MaxBits, s.cfg.Rows)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = program.Run()
	m.Wipe()
	s.finish(context.WithoutCancel(cmd.Context()))
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# molishai configuration
# Uncomment a value to enable it. CLI flags override config values.

[generate]
# bits = %d               # Entropy bits per password (0-%d)
# rows = %d                # Passwords per run
# model = ""              # Model file (empty: built-in reference model)
# audit = true            # Record generation counts (never passwords)
# db = %q
# metrics-file = ""       # Prometheus textfile output
# log-level = %q        # debug, info, warn or error
# log-file = ""           # Also write JSON logs here
`,
		config.DefaultBits,
		config.MaxBits,
		config.DefaultRows,
		config.DefaultDBPath(),
		config.DefaultLogLevel,
	)
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
