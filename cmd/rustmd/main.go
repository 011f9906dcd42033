package main

import (
	"fmt"
	"os"
	"time"

	"rustmd/internal/config"
	"rustmd/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Effective configuration, loaded before every command
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rustmd",
	Short: "rustmd - literate source renderer",
	Long: `rustmd renders literate source documents.

A rustmd document interleaves prose with code. Lines starting with '$' are
code and are syntax highlighted; other lines are prose and flow together
into paragraphs. The code language comes from the file extension with its
trailing "md" removed: divide.rsmd holds Rust.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig loads the effective configuration and initializes logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	// The preview owns the terminal; it only logs when a file is configured.
	if cmd.Name() == "preview" && cfg.Logging.File == "" {
		logger = zap.NewNop()
		logging.Reset()
		return nil
	}

	logger, err = logging.Initialize(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded", zap.String("path", configPath))
	return nil
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rustmd version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rustmd %s\n", version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	// Add commands to root
	rootCmd.AddCommand(divideCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
