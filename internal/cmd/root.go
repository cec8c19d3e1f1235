package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/salmonumbrella/braindump/internal/config"
	"github.com/salmonumbrella/braindump/internal/logging"
	"github.com/salmonumbrella/braindump/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(versionTemplate())
}

// Global flags
var (
	outputFmt   string
	outputType  output.Format
	debug       bool
	configFile  string
	queryExpr   string
	queryFile   string
	errorFmt    string
	quietFlag   bool
	logLevel    string
	backendFlag string
)

var (
	// cfg is the config loaded for the running command.
	cfg = &config.Config{}
	// logger is rebuilt for every command from --debug, --log-level and config.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "braindump",
	Short: "Turn indented brain dumps into linked records",
	Long: `braindump turns a free-form indented outline into task and project
records. Every indented line becomes a child of the line above it.

Records are stored in a local SQLite database by default, or in Neo4j or
the hosted document API. Each item can optionally be categorized by Gemini
before it is saved.

Environment Variables:
  BRAINDUMP_API_TOKEN        API token for the hosted record API
  BRAINDUMP_BACKEND          Record backend (sqlite|neo4j|api)
  BRAINDUMP_NEO4J_PASSWORD   Neo4j password
  BRAINDUMP_LOG_LEVEL        Log level (debug|info|warn|error)
  GEMINI_API_KEY             Gemini API key for --enhance`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		cfg = &config.Config{}
		if !skipConfigLoad {
			loaded, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loaded
		}

		// Output format selection: --output > config > json when piped > text
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		}
		if !flagChanged(cmd, "output") && !isTerminal(cmd.OutOrStdout()) {
			formatStr = string(output.FormatJSON)
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = strings.TrimSpace(loaded)
		}

		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		ctx := cmd.Context()
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = withErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}

		built, err := logging.New(resolveLogLevel(cmd), cfg.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = built
		logger.Debug("command start", zap.String("command", cmd.CommandPath()))
		return nil
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx)
}

func execute(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		errCtx := rootCmd.Context()
		if cmd != nil && cmd.Context() != nil {
			errCtx = cmd.Context()
		}
		printCommandError(errCtx, err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func versionTemplate() string {
	return fmt.Sprintf("braindump version %s (commit: %s, built: %s)\n", version, commit, date)
}

func init() {
	rootCmd.SetVersionTemplate(versionTemplate())

	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Record backend (sqlite|neo4j|api)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/braindump/config.yaml)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
