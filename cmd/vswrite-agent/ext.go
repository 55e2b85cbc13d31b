package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/extension"
)

func newExtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ext",
		Short: "Manage extensions",
	}
	cmd.AddCommand(newExtListCmd())
	cmd.AddCommand(newExtVerifyCmd())
	cmd.AddCommand(newExtInstallCmd())
	return cmd
}

// extManager builds a manager for install/verify work. No registry or
// entity store is attached; nothing gets loaded through it.
func extManager() (*extension.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	verifier, err := newVerifier()
	if err != nil {
		return nil, err
	}
	return extension.NewManager(extension.ManagerConfig{
		Dir:      extensionsDir(cfg),
		Verifier: verifier,
		Logger:   slog.Default(),
	}), nil
}

func newExtListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed extensions with their trust tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir := extensionsDir(cfg)
			mgr, err := extManager()
			if err != nil {
				return err
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "no extensions installed")
					return nil
				}
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tTIER\tTOOLS")
			count := 0
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				count++
				manifest, verification, err := mgr.VerifyDir(filepath.Join(dir, e.Name()))
				if err != nil {
					fmt.Fprintf(w, "%s\t-\tbroken\t%v\n", e.Name(), err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					manifest.ID, manifest.Version, verification.Tier, len(manifest.Tools))
			}
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no extensions installed")
				return nil
			}
			return w.Flush()
		},
	}
}

func newExtVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <path>",
		Short: "Verify the manifest signature of an extension directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := extManager()
			if err != nil {
				return err
			}
			manifest, verification, err := mgr.VerifyDir(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %s\n", manifest.ID)
			fmt.Fprintf(out, "name:      %s\n", manifest.Name)
			fmt.Fprintf(out, "version:   %s\n", manifest.Version)
			fmt.Fprintf(out, "tier:      %s\n", verification.Tier)
			if verification.PublisherID != "" {
				fmt.Fprintf(out, "publisher: %s\n", verification.PublisherID)
			}
			if verification.Detail != "" {
				fmt.Fprintf(out, "detail:    %s\n", verification.Detail)
			}
			if verification.Tier == extension.TierInvalid {
				return fmt.Errorf("signature verification failed")
			}
			return nil
		},
	}
}

func newExtInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <archive.vsext>",
		Short: "Install an extension from a .vsext archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := extManager()
			if err != nil {
				return err
			}
			manifest, verification, err := mgr.Install(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s %s (%s)\n",
				manifest.ID, manifest.Version, verification.Tier)
			if verification.Tier != extension.TierTrusted {
				fmt.Fprintln(cmd.OutOrStdout(), "warning: this extension is not from a trusted publisher")
			}
			return nil
		},
	}
}
