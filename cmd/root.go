package cmd

import (
	"fmt"
	"os"

	"github.com/mj1618/privacy-blur/internal/config"
	"github.com/mj1618/privacy-blur/internal/logging"
	"github.com/mj1618/privacy-blur/internal/output"
	"github.com/mj1618/privacy-blur/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "privacy-blur",
	Short: "Blur or mask application content on demand",
	Long: `A privacy overlay toolkit: capture the current frame, blur it with a fast
stack blur (or mask it with a solid colour), and fade it in over the host
content. Drive the overlay from a script, serve it to agents over MCP, or blur
image files directly.`,
	SilenceUsage: true,
}

// settings and logger are resolved before any subcommand runs.
var (
	settings = &config.Settings{}
	logger   = zap.NewNop()
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		if pretty, _ := rootCmd.PersistentFlags().GetBool("pretty"); pretty {
			output.PrettyOutput = true
		}

		path, _ := rootCmd.PersistentFlags().GetString("config")
		s, err := config.Load(path)
		if err != nil {
			return err
		}
		if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
			s.LogLevel = level
		}
		l, err := logging.New(s.Logging())
		if err != nil {
			return err
		}
		settings, logger = s, l
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	}
}
