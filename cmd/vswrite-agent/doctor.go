package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/doctor"
)

var severityGlyphs = map[doctor.Severity]string{
	doctor.SeverityOK:      "✓",
	doctor.SeverityWarning: "!",
	doctor.SeverityError:   "✗",
}

func newDoctorCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials, workspace and extensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := config.Load()
			if workspace == "" {
				workspace, _ = os.Getwd()
			}

			verifier, err := newVerifier()
			if err != nil {
				return err
			}

			report := doctor.Run(doctor.Options{
				Config:        cfg,
				ConfigErr:     cfgErr,
				Workspace:     workspace,
				ExtensionsDir: extensionsDir(cfg),
				StateDir:      stateDir(cfg),
				Verifier:      verifier,
			})

			out := cmd.OutOrStdout()
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s [%s] %s\n", severityGlyphs[issue.Severity], issue.Category, issue.Message)
				if issue.Hint != "" {
					fmt.Fprintf(out, "    hint: %s\n", issue.Hint)
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found problems")
			}
			fmt.Fprintln(out, "\neverything looks good")
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	return cmd
}
