package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/checks"
	"github.com/jenian/atfcheck/internal/config"
	"github.com/jenian/atfcheck/internal/output"
	"github.com/jenian/atfcheck/internal/server"
	"github.com/jenian/atfcheck/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time via -ldflags
var Version = "dev"

// errAnalysisFailed is returned when the report has errors; main only sets the exit code for it
var errAnalysisFailed = errors.New("analysis failed")

var (
	rootCmd = &cobra.Command{
		Use:           "atfcheck",
		Short:         "Static analysis for XML test automation repositories",
		Long:          "Validates test cases, suites, app modules, endpoint constants, datasets and repository metadata against configurable thresholds.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	checkCmd = &cobra.Command{
		Use:   "check [path]",
		Short: "Run all checks once",
		Long:  "Run every analyzer against the repository at path (default: current directory). Exits 1 when any check reports errors.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}

	watchCmd = &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-run checks whenever files change",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}

	serveCmd = &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve analysis reports over HTTP",
		Long:  "Start an HTTP server exposing /health, /api/analyzers and /api/report for the repository at path.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the registered analyzers",
		RunE:  runList,
	}

	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Create a " + config.FileName + " file in the current directory",
		Long:  "Creates a " + config.FileName + " file holding the default configuration in the current directory.",
		RunE:  runInitConfig,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}

	// Flags
	configPath string
	envFiles   []string
	debug      bool
	logFormat  string
	jsonOutput bool
	maxErrors  int
	noWarnings bool
	noHeader   bool
	addr       string

	// Threshold overrides shared by check, watch and serve
	thresholdFlags  = pflag.NewFlagSet("thresholds", pflag.ContinueOnError)
	thresholdValues = make(map[string]*int)
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <path>/"+config.FileName+")")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files with "+config.EnvPrefix+"* overrides (default: .env, .env.local, .envrc)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")

	for _, name := range config.ThresholdNames() {
		thresholdValues[name] = thresholdFlags.Int(thresholdFlagName(name), 0, "Override the "+name+" threshold")
	}

	for _, cmd := range []*cobra.Command{checkCmd, watchCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
		cmd.Flags().IntVar(&maxErrors, "max-errors", -1, "Maximum errors shown per check, 0 for all (default: from config)")
		cmd.Flags().BoolVar(&noWarnings, "no-warnings", false, "Do not print warnings")
		cmd.Flags().BoolVar(&noHeader, "no-header", false, "Skip printing the header")
	}
	for _, cmd := range []*cobra.Command{checkCmd, watchCmd, serveCmd} {
		cmd.Flags().AddFlagSet(thresholdFlags)
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func thresholdFlagName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// applyThresholdFlags copies explicitly set threshold flags into cfg
func applyThresholdFlags(cfg *config.Config, fs *pflag.FlagSet, values map[string]*int) error {
	for name, v := range values {
		if !fs.Changed(thresholdFlagName(name)) {
			continue
		}
		if err := cfg.Thresholds.Set(name, *v); err != nil {
			return err
		}
	}
	return nil
}

// resolveRoot returns the absolute repository root from the optional path argument
func resolveRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("path does not exist: %s", absPath)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}
	return absPath, nil
}

// session is the configuration and logger shared by every command that runs the engine
type session struct {
	root  string
	cfg   *config.Config
	log   *slog.Logger
	deps  *checks.Deps
	close func()
}

func newSession(args []string) (*session, error) {
	root, err := resolveRoot(args)
	if err != nil {
		return nil, err
	}

	cfg, applied, err := loadConfig(root, configPath, envFiles)
	if err != nil {
		return nil, err
	}
	if err := applyThresholdFlags(cfg, thresholdFlags, thresholdValues); err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	if len(applied) > 0 {
		log.Debug("environment overrides applied", "keys", applied)
	}
	log.Debug("configuration loaded", "root", root, "workers", cfg.Workers)

	return &session{root: root, cfg: cfg, log: log, deps: checks.NewDeps(cfg, log), close: closeLog}, nil
}

func (s *session) consoleOutput() *output.Console {
	limit := s.cfg.Report.MaxErrorsPerCheck
	if maxErrors >= 0 {
		limit = maxErrors
	}
	return output.NewConsole(os.Stdout, limit, s.cfg.Report.ShowWarnings && !noWarnings)
}

// analyze runs every analyzer once and renders the report
func (s *session) analyze(analyzers []analyzer.Analyzer) *analyzer.Report {
	if jsonOutput {
		report := analyzer.Run(analyzers, s.cfg, s.log, output.Quiet{})
		if err := output.WriteJSON(os.Stdout, report); err != nil {
			s.log.Error("failed to write report", "error", err)
		}
		s.logCacheStats()
		return report
	}

	console := s.consoleOutput()
	report := analyzer.Run(analyzers, s.cfg, s.log, console)
	console.Summary(report)
	s.logCacheStats()
	return report
}

func (s *session) logCacheStats() {
	st := s.deps.XML.Stats()
	s.log.Debug("xml parse cache",
		"size", st.Size,
		"hits", st.Hits,
		"misses", st.Misses,
		"evictions", st.Evictions,
	)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := newSession(args)
	if err != nil {
		return err
	}
	defer s.close()

	if !noHeader && !jsonOutput {
		printHeader(s.root)
	}

	report := s.analyze(checks.Default(s.deps))
	if !report.Success() {
		return errAnalysisFailed
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(args)
	if err != nil {
		return err
	}
	defer s.close()

	if !noHeader && !jsonOutput {
		printHeader(s.root)
	}

	// Parsers live across runs so unchanged files come from the cache
	analyzers := checks.Default(s.deps)
	s.analyze(analyzers)

	w, err := watch.New(s.root, s.cfg.ExcludedDirs, func() { s.analyze(analyzers) }, s.log)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.log.Info("watching for changes", "root", s.root)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := newSession(args)
	if err != nil {
		return err
	}
	defer s.close()

	analyzers := checks.Default(s.deps)
	srv := server.NewServer(func() *analyzer.Report {
		report := analyzer.Run(analyzers, s.cfg, s.log, nil)
		s.logCacheStats()
		return report
	}, analyzers, s.log)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		s.log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	s.log.Info("starting atfcheck server", "addr", addr, "root", s.root)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.DiscardHandler)
	cfg := config.Default()
	for i, a := range checks.Default(checks.NewDeps(cfg, log)) {
		fmt.Printf("%d. %s\n   %s\n", i+1, a.Name(), a.Description())
	}
	return nil
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := config.FileName

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists in the current directory", path)
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}
	content := "# " + config.FileName + "\n" +
		"# Configuration file for atfcheck. Every value below is a default and may be removed.\n" +
		"# Thresholds can also be set with " + config.EnvPrefix + "THRESHOLDS_<NAME> environment variables.\n\n" +
		string(data)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	fmt.Printf("Created %s in the current directory\n", path)
	return nil
}

func printHeader(root string) {
	fmt.Printf("atfcheck %s\n", Version)
	fmt.Printf("Repository: %s\n", root)
}

// reportError prints err unless it only signals a failed report
func reportError(w io.Writer, err error) {
	if errors.Is(err, errAnalysisFailed) {
		return
	}
	output.NewConsole(w, 0, false).Error(err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}
