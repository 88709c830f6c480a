package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"debugnerd/internal/agent"
	"debugnerd/internal/config"
	"debugnerd/internal/embedding"
	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
	"debugnerd/internal/planner"
	"debugnerd/internal/retrieval"
	"debugnerd/internal/store"
	"debugnerd/internal/tactile"
	"debugnerd/internal/tools"
	"debugnerd/internal/ux"
)

// =============================================================================
// WIRING
// =============================================================================

func projectRoot() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

func loadProject() (string, *config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	cfg, err := config.Load(config.DefaultPath(root))
	if err != nil {
		return "", nil, err
	}
	if err := logging.Initialize(root); err != nil {
		logger.Warn("file logging disabled", zap.Error(err))
	}
	return root, cfg, nil
}

func constraintsFrom(cfg *config.Config) memory.Constraints {
	return memory.Constraints{
		MaxSessionSteps:          cfg.Agent.MaxSessionSteps,
		RecentActionsCap:         cfg.Memory.RecentActionsCap,
		DedupWindow:              cfg.Agent.DedupWindow,
		AllowedFileModifications: true,
		AllowedCommandExecution:  true,
	}
}

func optimizerFrom(cfg *config.Config) *memory.Optimizer {
	return memory.NewOptimizer(memory.OptimizerConfig{
		FocusRecentSteps:      cfg.Memory.FocusRecentSteps,
		FocusMinSteps:         cfg.Memory.FocusMinSteps,
		FocusRecentActionsCap: cfg.Memory.FocusRecentActionsCap,
		TruncationThreshold:   cfg.Memory.FileTruncationThreshold,
		TruncationKeep:        cfg.Memory.FileTruncationKeep,
		NotesCap:              cfg.Memory.NotesCap,
		NotesMaxChars:         cfg.Memory.NotesMaxChars,
		ProgressionCap:        cfg.Memory.ProgressionCap,
	})
}

func plannerFrom(cfg *config.Config) (planner.Planner, error) {
	return planner.New(planner.Config{
		Backend:        cfg.Planner.Backend,
		OllamaEndpoint: cfg.Planner.Ollama.BaseURL,
		OllamaModel:    cfg.Planner.Ollama.Model,
		GenAIAPIKey:    cfg.Planner.GenAI.APIKey,
		GenAIModel:     cfg.Planner.GenAI.Model,
	})
}

func embedderFrom(cfg *config.Config) (embedding.Engine, error) {
	return embedding.NewEngine(embedding.Config{
		Backend:        cfg.Embedding.Backend,
		OllamaEndpoint: cfg.Embedding.Ollama.BaseURL,
		OllamaModel:    cfg.Embedding.Ollama.Model,
		GenAIAPIKey:    cfg.Embedding.GenAI.APIKey,
		GenAIModel:     cfg.Embedding.GenAI.Model,
		Dimensions:     cfg.Embedding.Dimensions,
	})
}

func storePath(root string, cfg *config.Config) string {
	return filepath.Join(root, cfg.Store.DatabasePath)
}

// openExistingStore opens the index database only when one is already on
// disk; debug sessions never create an index as a side effect.
func openExistingStore(root string, cfg *config.Config) *store.Store {
	path := storePath(root, cfg)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	st, err := store.Open(path, cfg.Embedding.Dimensions)
	if err != nil {
		logger.Warn("failed to open index store", zap.Error(err))
		return nil
	}
	return st
}

func hybridFrom(st *store.Store, cfg *config.Config) *retrieval.Hybrid {
	bm25, err := st.LoadBM25(cfg.Retrieval.BM25K1, cfg.Retrieval.BM25B, cfg.Retrieval.Stoplist)
	if err != nil {
		logger.Warn("failed to load lexical index", zap.Error(err))
		return nil
	}
	embedder, err := embedderFrom(cfg)
	if err != nil {
		logger.Warn("embedding backend unavailable, retrieval is lexical-only", zap.Error(err))
		embedder = nil
	}
	return retrieval.NewHybrid(bm25, st, embedder, cfg.Retrieval.BM25Weight, cfg.Retrieval.VectorWeight)
}

// =============================================================================
// debug
// =============================================================================

func runDebug(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	command := strings.Join(args, " ")
	runner := tactile.NewShellRunner(root)
	term := ux.NewTerminal()

	fmt.Printf("Running: %s\n", command)
	res := runner.Run(ctx, command, cfg.CommandTimeout())
	fmt.Print(res.Output)
	if res.Ok {
		fmt.Println("Command succeeded; nothing to debug.")
		return nil
	}
	fmt.Printf("Command failed (exit %d), starting debug session.\n\n", res.ExitCode)

	agentCtx := memory.NewAgentContext(uuid.NewString(), userContext, memory.CommandResult{
		CommandString: command,
		Stdout:        res.Output,
		ExitCode:      res.ExitCode,
	}, root, constraintsFrom(cfg))

	if err := agent.Seed(agentCtx, cfg); err != nil {
		return err
	}

	st := openExistingStore(root, cfg)
	if st != nil {
		defer st.Close()
		if hybrid := hybridFrom(st, cfg); hybrid != nil {
			if err := agent.EnrichFromIndex(ctx, agentCtx, hybrid, cfg); err != nil {
				logger.Warn("index enrichment skipped", zap.Error(err))
			}
		}
	}

	catalog := tools.NewCatalog(tools.Deps{
		Agent:  agentCtx,
		Runner: runner,
		UX:     term,
		Cfg:    cfg,
	})
	agentCtx.AvailableTools = catalog.Descriptors()

	p, err := plannerFrom(cfg)
	if err != nil {
		return fmt.Errorf("failed to create planner: %w", err)
	}

	orch := agent.New(agentCtx, catalog, p, optimizerFrom(cfg), cfg)
	outcome, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	term.DisplayBlock(fmt.Sprintf("Session %s", outcome.Status), outcome.Conclusion)

	sessionsDir := filepath.Join(root, cfg.Store.SessionsDir)
	path, err := agent.PersistSession(agentCtx, outcome, sessionsDir, st)
	if err != nil {
		logger.Warn("failed to persist session", zap.Error(err))
		return nil
	}
	fmt.Printf("Session log: %s\n", path)
	return nil
}

// =============================================================================
// index
// =============================================================================

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	st, err := store.Open(storePath(root, cfg), cfg.Embedding.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	embedder, err := embedderFrom(cfg)
	if err == nil {
		_, err = embedder.Embed(ctx, "ping")
	}
	if err != nil {
		logger.Warn("embedding backend unavailable, building lexical-only index", zap.Error(err))
		embedder = nil
	}

	fmt.Printf("Indexing %s ...\n", root)
	stats, err := st.BuildIndex(ctx, root, embedder, store.IndexOptions{
		Extensions:   cfg.Retrieval.RelevantExtensions,
		ChunkLines:   cfg.Retrieval.ChunkLines,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("Indexed %d files into %d chunks (%d embedded).\n", stats.Files, stats.Chunks, stats.Embedded)
	if stats.Embedded == 0 && stats.Chunks > 0 {
		fmt.Println("No embeddings were generated; retrieval will be lexical-only.")
	}
	return nil
}

// =============================================================================
// sessions
// =============================================================================

func runSessions(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	st := openExistingStore(root, cfg)
	if st == nil {
		fmt.Println("No sessions recorded yet.")
		return nil
	}
	defer st.Close()

	records, err := st.ListSessions(listLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %-22s  %2d steps  %s\n",
			rec.FinishedAt.Local().Format("2006-01-02 15:04"),
			rec.FinalStatus, rec.Steps, rec.UserRequest)
	}
	return nil
}

// =============================================================================
// status
// =============================================================================

func runStatus(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	fmt.Printf("Project:   %s\n", root)
	fmt.Printf("Config:    %s\n", config.DefaultPath(root))
	fmt.Printf("Planner:   %s (%s)\n", cfg.Planner.Backend, plannerModel(cfg))
	fmt.Printf("Embedding: %s (%d dims)\n", cfg.Embedding.Backend, cfg.Embedding.Dimensions)

	st := openExistingStore(root, cfg)
	if st == nil {
		fmt.Println("Index:     not built (run `debugnerd index`)")
		return nil
	}
	defer st.Close()

	fmt.Printf("Index:     %d chunks (%d embedded), vec extension: %v\n",
		st.ChunkCount(), st.IndexSize(), st.VecEnabled())
	return nil
}

func plannerModel(cfg *config.Config) string {
	if strings.EqualFold(cfg.Planner.Backend, "genai") {
		return cfg.Planner.GenAI.Model
	}
	return cfg.Planner.Ollama.Model
}
