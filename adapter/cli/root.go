package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence - habit consistency and goal progress",
	Long: `Cadence tracks recurring habits, logs activities with measured values,
and projects progress toward goals: target values, deadlines and
consistency scores that forgive the occasional missed day.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx = context.WithValue(ctx, commandContextKey{}, info)
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(ctx)
		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		if app != nil && app.Events != nil {
			if err := app.Events.DeliverPending(ctx); err != nil {
				logger.WarnContext(ctx, "event delivery incomplete", "error", err)
			}
		}
		info, ok := ctx.Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.DebugContext(ctx, "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute runs the root command with ctx as the base context.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// ConfigFile returns the --config flag value. It is read before the
// command tree runs, so it parses the raw arguments itself.
func ConfigFile(args []string) string {
	for i, arg := range args {
		if (arg == "--config" || arg == "-c") && i+1 < len(args) {
			return args[i+1]
		}
		if path, ok := strings.CutPrefix(arg, "--config="); ok {
			return path
		}
	}
	return ""
}

// Verbose reports whether -v/--verbose appears in args.
func Verbose(args []string) bool {
	for _, arg := range args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}
