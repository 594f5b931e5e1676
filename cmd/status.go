package cmd

import (
	"github.com/mj1618/privacy-blur/internal/output"
	"github.com/mj1618/privacy-blur/internal/version"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the effective configuration",
	Long: `Print the overlay configuration after applying the config file,
PRIVACYBLUR_* environment variables and command-line flags, along with the
blur strategy that would be used.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addOverlayFlags(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, st, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	level := settings.LogLevel
	if level == "" {
		level = "info"
	}
	return output.Print(output.StatusResult{
		Source:   settings.Source,
		Strategy: st.Name(),
		LogLevel: level,
		Config:   cfg.View(),
		Version:  version.Version,
	})
}
