package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dispatch/internal/config"
	derrors "github.com/vango-dev/dispatch/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	manifest string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		derrors.Print(os.Stderr, diagnose(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Route table tooling and inspection server",
		Long: `dispatch loads a JSON route manifest into the request-dispatch core.

Use it to validate manifests, list route tables, debug path matching
and run an inspection server that answers every route with the
matched route and parameters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to dispatch.json or its directory")
	rootCmd.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", "", "Route manifest (default from dispatch.json)")

	rootCmd.AddCommand(
		routesCmd(flags),
		checkCmd(flags),
		matchCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig resolves the configuration named by the global flags.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.config == "":
		cfg, err = config.LoadFromWorkingDir()
	case strings.HasSuffix(flags.config, ".json"):
		cfg, err = config.LoadFile(flags.config)
	default:
		cfg, err = config.Load(flags.config)
	}
	if err != nil {
		return nil, err
	}
	if flags.manifest != "" {
		cfg.Routes.Manifest = flags.manifest
	}
	return cfg, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// diagnose turns any command error into a printable diagnostic.
func diagnose(err error) *derrors.Diagnostic {
	var d *derrors.Diagnostic
	if stderrors.As(err, &d) {
		return d
	}
	return derrors.FromRouteError(err)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
