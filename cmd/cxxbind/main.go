package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/cxxbind/backend"
	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/lifecycle"
)

var rootCmd = &cobra.Command{
	Use:           "cxxbind",
	Short:         "Generate host bindings for C++ libraries",
	Long:          `cxxbind reads a declaration manifest and emits binding code for the legacy and embedded backends`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("log-level")
		if level != "" {
			cfg.Log.Level = level
		}
		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		installLogger(log)
		current = cfg
		return nil
	},
}

// current is the configuration loaded for the running command.
var current *config.Config

var errorColor = color.New(color.FgRed, color.Bold)

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "cxxbind.toml", "configuration file")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorColor.Sprint("error:"), err)
		os.Exit(1)
	}
}

func setupColor(cmd *cobra.Command) error {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", mode)
	}
	return nil
}

// loadConfig reads the configuration file. A missing default file means
// defaults; a missing file named on the command line is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); err != nil && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if color.NoColor {
			zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func installLogger(l *zap.Logger) {
	generator.SetLogger(l)
	lifecycle.SetLogger(l)
	backend.SetLogger(l)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
