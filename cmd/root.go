package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/stackgen-cli/loop-migrate/internal/config"
	"github.com/stackgen-cli/loop-migrate/internal/logging"
)

var (
	version    = "1.0.0"
	colorMode  string
	configFile string
	dirFlag    string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loop-migrate",
	Short: "One-shot field migrations for loop record directories",
	Long: color.New(color.FgCyan).Sprint(`
loop-migrate - Loop Record Migration Tool

`) + `Apply a single field-level migration to every loop record (*.json) in a
directory: add an empty voice, assign identities, or set a constant field.

` + color.New(color.FgYellow).Sprint(`Files are rewritten in place. Use --dry-run to preview.
`),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Interrupts cancel the run between files.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: .loop-migrate.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Directory of loop records (default: "+config.DefaultDir+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console, json")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		switch colorMode {
		case "never":
			color.NoColor = true
		case "always":
			color.NoColor = false
		case "auto":
			fd := os.Stdout.Fd()
			color.NoColor = os.Getenv("NO_COLOR") != "" || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
		default:
			return fmt.Errorf("invalid --color value %q", colorMode)
		}

		var err error
		logger, err = logging.New(logging.Options{Level: logLevel, Format: logFormat}, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cfg, err = loadConfig(cmd)
		return err
	}
}

// loadConfig resolves settings: config file, then .env and environment, then flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		c    *config.Config
		path string
		err  error
	)
	if configFile != "" {
		path = configFile
		c, err = config.Load(configFile)
	} else {
		c, path, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if err := c.ApplyEnv("."); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dir") {
		c.Dir = dirFlag
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", "file", path, "dir", c.Dir, "journal_dir", c.JournalDir)
	return c, nil
}
