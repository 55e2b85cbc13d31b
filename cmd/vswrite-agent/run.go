package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vswrite/agentcore/internal/approval"
	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/credentials"
	"github.com/vswrite/agentcore/internal/entity"
	"github.com/vswrite/agentcore/internal/extension"
	"github.com/vswrite/agentcore/internal/logging"
	"github.com/vswrite/agentcore/internal/orchestrator"
	"github.com/vswrite/agentcore/internal/orchestrator/adapter"
	"github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider"
	pmodel "github.com/vswrite/agentcore/internal/provider/model"
	"github.com/vswrite/agentcore/internal/registry"
	"github.com/vswrite/agentcore/internal/session"
	"github.com/vswrite/agentcore/internal/ui"
)

type runOptions struct {
	workspace    string
	mode         string
	providerName string
	model        string
	maxTurns     int
	dryRun       bool
	prompt       string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [task...]",
		Short: "Run an agent session against the workspace",
		Long: `Run an agent session. The task is given as arguments or via --prompt.

With --prompt the session is non-interactive: approval requests are
answered on stdin and the final text is printed to stdout. Otherwise a
terminal UI shows progress and collects approvals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := opts.prompt
			if task == "" {
				task = strings.TrimSpace(strings.Join(args, " "))
			}
			if task == "" {
				return fmt.Errorf("a task is required: pass it as arguments or via --prompt")
			}
			return runSession(cmd.Context(), opts, task, opts.prompt != "")
		},
	}

	cmd.Flags().StringVarP(&opts.workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "approval mode: auto_approve, approve_writes, approve_dangerous, approve_all, dry_run")
	cmd.Flags().StringVar(&opts.providerName, "provider", "", "provider backend: openai, gemini, ollama, openrouter")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (default: provider's default)")
	cmd.Flags().IntVar(&opts.maxTurns, "max-turns", 0, "maximum provider turns for this task")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "never execute tools; report what would run")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "run non-interactively with this task")

	return cmd
}

func runSession(ctx context.Context, opts *runOptions, task string, plain bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyOverrides(cfg, opts)

	mode, err := approval.ParseMode(cfg.Orchestrator.ApprovalMode)
	if err != nil {
		return err
	}

	workspace := opts.workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return err
		}
	}
	if workspace, err = filepath.Abs(workspace); err != nil {
		return err
	}

	states := stateDir(cfg)
	logOpts := logging.Options{StateDir: states}
	if !plain {
		// The TUI owns the terminal; logs go to the file only.
		logOpts.Stderr = io.Discard
	}
	logger := logging.Setup(logOpts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	apiKey, err := credentials.APIKey(cfg.Provider.Name)
	if err != nil {
		return err
	}
	prov, err := provider.New(ctx, cfg, apiKey)
	if err != nil {
		return err
	}

	tools, err := adapter.Builtins(workspace, cfg)
	if err != nil {
		return err
	}
	reg := registry.New(cfg.Tools.MaxResultBytes, logger)
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}

	entities := entity.NewStore(workspace)

	if cfg.Extensions.Enabled {
		verifier, err := newVerifier()
		if err != nil {
			return err
		}
		mgr := extension.NewManager(extension.ManagerConfig{
			Dir:         extensionsDir(cfg),
			Verifier:    verifier,
			Registry:    reg,
			Entities:    entities,
			CallTimeout: time.Duration(cfg.Extensions.CallTimeoutSeconds) * time.Second,
			HookTimeout: time.Duration(cfg.Extensions.HookTimeoutSeconds) * time.Second,
			Logger:      logger,
		})
		mgr.LoadAll(ctx)
		defer func() {
			for _, le := range mgr.List() {
				if err := mgr.Unload(context.Background(), le.Manifest.ID); err != nil {
					logger.Warn("extension unload failed", "extension", le.Manifest.ID, "error", err)
				}
			}
		}()
	}

	store := session.NewStore(states, cfg.Sessions.MaxSessions)
	audit := session.NewAudit(store, cfg.Sessions.MaxAuditEntries)
	rec, err := store.Create(workspace, prov.Name(), prov.Model(), string(mode), task)
	if err != nil {
		return fmt.Errorf("creating session record: %w", err)
	}

	// The gate is built before its frontend; notify is bound once the
	// frontend exists.
	var notify func(model.ApprovalRequest)
	gate := approval.NewGate(mode, func(req model.ApprovalRequest) {
		if notify != nil {
			notify(req)
		}
	}, logger)

	orch := orchestrator.New(orchestrator.Config{
		SessionID:    rec.ID,
		Task:         task,
		SystemPrompt: systemPrompt(workspace),
		MaxTurns:     cfg.Orchestrator.MaxTurns,
		Provider:     prov,
		Gate:         gate,
		Dispatcher:   reg,
		Auditor:      audit,
		Generate:     generateConfig(cfg),
		Logger:       logger,
	})

	var result *orchestrator.Result
	var runErr error

	if plain {
		approver := ui.NewPlainApprover(gate, os.Stdin, os.Stderr)
		notify = approver.Notify
		go drainEvents(orch.Events())
		result, runErr = orch.Run(ctx)
	} else {
		prog := ui.NewProgram(orch.Events(), gate, cancel)
		notify = prog.Notify
		done := make(chan struct{})
		go func() {
			defer close(done)
			result, runErr = orch.Run(ctx)
		}()
		if err := prog.Run(); err != nil {
			cancel()
			<-done
			return err
		}
		<-done
	}

	finalState := model.StateFailed
	errMsg := ""
	if result != nil {
		finalState = result.State
	}
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := store.Finish(rec.ID, finalState, errMsg); err != nil {
		logger.Warn("session record update failed", "session", rec.ID, "error", err)
	}
	if result != nil {
		if err := store.Update(rec.ID, func(r *session.Record) {
			r.ToolCallCount = result.ToolCalls
			r.TotalTokens = result.TotalTokens
		}); err != nil {
			logger.Warn("session record update failed", "session", rec.ID, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if plain && result != nil {
		fmt.Println(result.FinalText)
	}
	return nil
}

func applyOverrides(cfg *config.Config, opts *runOptions) {
	if opts.mode != "" {
		cfg.Orchestrator.ApprovalMode = opts.mode
	}
	if opts.dryRun {
		cfg.Orchestrator.ApprovalMode = string(approval.ModeDryRun)
	}
	if opts.providerName != "" {
		cfg.Provider.Name = opts.providerName
	}
	if opts.model != "" {
		cfg.Provider.Model = opts.model
	}
	if opts.maxTurns > 0 {
		cfg.Orchestrator.MaxTurns = opts.maxTurns
	}
}

func generateConfig(cfg *config.Config) *pmodel.GenerateConfig {
	temp := float32(cfg.Provider.Temperature)
	maxTokens := cfg.Provider.MaxTokens
	return &pmodel.GenerateConfig{
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	}
}

func systemPrompt(workspace string) string {
	return fmt.Sprintf(`You are a writing assistant operating on the workspace at %s.

Use the available tools to read and modify files. Paths are relative
to the workspace root; you cannot reach outside it. Prefer small,
reviewable edits. When the task is done, reply with a short summary of
what changed.`, workspace)
}

func drainEvents(events <-chan model.Event) {
	for range events {
	}
}
