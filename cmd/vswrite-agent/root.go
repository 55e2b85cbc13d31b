package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/extension"
	"github.com/vswrite/agentcore/internal/logging"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "vswrite-agent",
		Short:         "Agent sessions for vswrite workspaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbose(verbose)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newExtCmd())
	cmd.AddCommand(newSessionsCmd())

	return cmd
}

// extensionsDir resolves the extensions directory, defaulting to
// ~/.config/vswrite-agent/extensions.
func extensionsDir(cfg *config.Config) string {
	if cfg != nil && cfg.Extensions.Dir != "" {
		return cfg.Extensions.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", config.ConfigDir, "extensions")
}

// stateDir resolves where session records, audit logs and the log
// file live, defaulting to ~/.local/state/vswrite-agent.
func stateDir(cfg *config.Config) string {
	if cfg != nil && cfg.Sessions.Dir != "" {
		return cfg.Sessions.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "vswrite-agent")
}

func newVerifier() (*extension.Verifier, error) {
	trust, err := extension.NewTrustRegistry(extension.BuiltinPublishers)
	if err != nil {
		return nil, err
	}
	return extension.NewVerifier(trust), nil
}
