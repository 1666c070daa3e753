package main

import (
	"fmt"
	"io"
	"os"

	"footnote/internal/config"
	"footnote/internal/logging"
	"footnote/pkg/footnote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	formatterKind string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "footnote",
	Short: "footnote - turn comment directives into code",
	Long: `footnote rewrites comments such as

    // log: Value is ${x}

inside functions marked with // @Footnote.inject into real code chosen by a
formatter (fmt.Printf calls or zap logger calls).

Functions can be rewritten into new source for a normal build (rewrite,
watch) or recompiled and called directly through an embedded interpreter
(run).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if formatterKind != "" {
			cfg.Formatter.Kind = formatterKind
		}
		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		if err := logging.Configure(logging.Options{
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			Categories: cfg.Logging.Categories,
			Outputs:    cfg.Logging.Outputs(),
		}); err != nil {
			return err
		}
		logging.BootDebug("config loaded from %s: engine=%s formatter=%s", configPath, cfg.Engine, cfg.Formatter.Kind)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&formatterKind, "formatter", "", "Formatter kind (printf, zap); overrides config")

	rewriteCmd.Flags().BoolVarP(&rewriteInPlace, "write", "w", false, "Write results to the source files")
	rewriteCmd.Flags().StringVar(&outDir, "out", "", "Write results into this directory")
	watchCmd.Flags().StringVar(&outDir, "out", "", "Directory receiving rewritten files")
	runCmd.Flags().StringArrayVar(&runBindings, "set", nil, "Extra binding name=value (repeatable)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// currentConfig returns the loaded config, or defaults when a command runs
// without the root pre-run (tests).
func currentConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// newEngine builds an engine from the current config. out receives printf
// output of interpreted code.
func newEngine(out io.Writer) (*footnote.Engine, error) {
	l := logger
	if l == nil {
		l = zap.NewNop()
	}
	return footnote.NewFromConfig(currentConfig(), out, l)
}
