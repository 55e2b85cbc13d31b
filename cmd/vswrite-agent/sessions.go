package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect past agent sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	return cmd
}

func sessionStore() (*session.Store, *session.Audit, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store := session.NewStore(stateDir(cfg), cfg.Sessions.MaxSessions)
	audit := session.NewAudit(store, cfg.Sessions.MaxAuditEntries)
	return store, audit, nil
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := sessionStore()
			if err != nil {
				return err
			}
			records, err := store.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tSTATUS\tTOOLS\tTOKENS\tTASK")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Status, r.ToolCallCount, r.TotalTokens, truncateTask(r.Task, 60))
			}
			return w.Flush()
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's record and audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, audit, err := sessionStore()
			if err != nil {
				return err
			}
			rec, err := resolveSession(store, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session:  %s\n", rec.ID)
			fmt.Fprintf(out, "created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "status:   %s\n", rec.Status)
			fmt.Fprintf(out, "provider: %s (%s)\n", rec.Provider, rec.Model)
			fmt.Fprintf(out, "mode:     %s\n", rec.ApprovalMode)
			fmt.Fprintf(out, "task:     %s\n", rec.Task)
			if rec.Error != "" {
				fmt.Fprintf(out, "error:    %s\n", rec.Error)
			}

			entries, err := audit.Read(rec.ID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "\nno audit entries")
				return nil
			}
			fmt.Fprintln(out)
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-14s", e.Timestamp.Local().Format("15:04:05"), e.Kind)
				if e.ToolName != "" {
					line += "  " + e.ToolName
				}
				if e.Summary != "" {
					line += "  " + e.Summary
				}
				if e.DurationMs > 0 {
					line += fmt.Sprintf("  (%dms)", e.DurationMs)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

// resolveSession accepts a full id or an unambiguous prefix.
func resolveSession(store *session.Store, id string) (*session.Record, error) {
	if rec, err := store.Get(id); err == nil {
		return rec, nil
	}
	records, err := store.List()
	if err != nil {
		return nil, err
	}
	var match *session.Record
	for i := range records {
		if len(id) >= 4 && records[i].ID[:min(len(id), len(records[i].ID))] == id {
			if match != nil {
				return nil, fmt.Errorf("session id %q is ambiguous", id)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return nil, &session.NotFoundError{ID: id}
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateTask(task string, limit int) string {
	if len(task) <= limit {
		return task
	}
	return task[:limit-1] + "…"
}
