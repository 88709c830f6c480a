// debugnerd is an interactive debugging assistant for the terminal. It
// runs a failing command, builds an agent context from the output, and
// drives a planner/tool loop until the problem is resolved or the user
// is handed actionable guidance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	workspace   string
	userContext string
	listLimit   int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "debugnerd",
	Short: "debugnerd - agentic debugging assistant",
	Long: `debugnerd runs your failing command, reads the error output, and
debugs it step by step with a local or cloud LLM planner driving a
fixed set of safe tools. Fixes are only ever applied after you
confirm them.

Typical use:
  debugnerd debug python etl.py
  debugnerd index
  debugnerd sessions`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug [command...]",
	Short: "Run a command and debug its failure interactively",
	Long: `Executes the given shell command. If it fails, debugnerd seeds its
knowledge base from the error output and starts the agentic loop:
plan, act, observe, until the error is resolved or you are given
guidance. The planner can only use a fixed catalog of tools, and
anything that touches your files or runs a fix asks first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDebug,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the project for hybrid code retrieval",
	Long: `Chunks project source files and stores them with embeddings in the
local SQLite index. An indexed project lets debug sessions start with
retrieval-ranked pointers at the likely root cause. Without a
reachable embedding backend the index is built lexical-only.`,
	RunE: runIndex,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past debugging sessions",
	RunE:  runSessions,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace, index, and backend status",
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project directory (default: current)")

	debugCmd.Flags().StringVarP(&userContext, "context", "c", "", "Extra context about what you were trying to do")
	sessionsCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum sessions to list")

	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
