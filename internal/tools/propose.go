package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"debugnerd/internal/diff"
	"debugnerd/internal/logging"
)

// =============================================================================
// propose_code_patch
// =============================================================================

func proposeCodePatchTool(deps Deps) *Tool {
	return &Tool{
		Name:        "propose_code_patch",
		Description: "Show a unified diff for a structured patch and apply it after user confirmation",
		Category:    CategoryProposal,
		Mutating:    true,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeProposePatch(deps, args) },
		Schema: ToolSchema{
			Required: []string{"file_path", "patch_content", "patch_description"},
			Properties: map[string]Property{
				"file_path": {
					Type:        "string",
					Description: "File to patch, relative to the project root",
				},
				"patch_content": {
					Type:        "string",
					Description: "JSON array of changes: {line_number, action, old_content, new_content}",
				},
				"patch_description": {
					Type:        "string",
					Description: "One-line explanation of what the patch fixes",
				},
			},
		},
	}
}

func executeProposePatch(deps Deps, args map[string]any) map[string]any {
	agent := deps.Agent
	if !agent.Constraints.AllowedFileModifications {
		return Failure("file modifications are disabled for this session")
	}

	requested := stringArg(args, "file_path")
	description := stringArg(args, "patch_description")

	resolved := agent.ResolveFilePath(requested)
	rel := agent.RelativePath(resolved)
	abs := filepath.Join(agent.CurrentWorkingDirectory, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return Failure(fmt.Sprintf("File not found: %s", requested))
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return Failure(fmt.Sprintf("File not found: %s", requested))
	}
	original := string(data)

	changes, err := diff.ParseChanges(args["patch_content"])
	if err != nil {
		return Failure(fmt.Sprintf("invalid patch: %v", err))
	}
	patched, err := diff.Apply(original, changes)
	if err != nil {
		return Failure(fmt.Sprintf("patch does not apply: %v", err))
	}

	unified := diff.Unified(rel, original, patched)
	deps.UX.DisplayBlock("Proposed Patch: "+description, unified)

	confirmed, err := deps.UX.AskYesNo("Apply this patch?")
	if err != nil {
		return Failure(fmt.Sprintf("failed to read confirmation: %v", err))
	}
	if !confirmed {
		logging.Tools("propose_code_patch: user declined patch for %s", rel)
		return Skipped(map[string]any{
			"file_path":         rel,
			"user_confirmation": false,
			"patch_applied":     false,
		})
	}

	if err := os.WriteFile(abs, []byte(patched), info.Mode()); err != nil {
		return Failure(fmt.Sprintf("failed to write %s: %v", rel, err))
	}
	mtime := time.Now()
	if written, statErr := os.Stat(abs); statErr == nil {
		mtime = written.ModTime()
	}
	agent.CacheFileRead(rel, patched, agent.CurrentStep(), mtime)

	return Success(map[string]any{
		"file_path":         rel,
		"user_confirmation": true,
		"patch_applied":     true,
		"diff":              unified,
		"changes_applied":   len(changes),
	})
}

// =============================================================================
// propose_fix_by_command
// =============================================================================

func proposeFixByCommandTool(deps Deps) *Tool {
	return &Tool{
		Name:        "propose_fix_by_command",
		Description: "Show a fix command and run it after user confirmation",
		Category:    CategoryProposal,
		Mutating:    true,
		Execute: func(ctx context.Context, args map[string]any) map[string]any {
			return executeProposeCommand(ctx, deps, args)
		},
		Schema: ToolSchema{
			Required: []string{"command_to_propose", "command_description"},
			Properties: map[string]Property{
				"command_to_propose": {
					Type:        "string",
					Description: "Shell command that should fix the issue",
				},
				"command_description": {
					Type:        "string",
					Description: "One-line explanation of what the command does",
				},
			},
		},
	}
}

func executeProposeCommand(ctx context.Context, deps Deps, args map[string]any) map[string]any {
	agent := deps.Agent
	if !agent.Constraints.AllowedCommandExecution {
		return Failure("command execution is disabled for this session")
	}

	command := stringArg(args, "command_to_propose")
	description := stringArg(args, "command_description")

	deps.UX.DisplayBlock("Proposed Fix", fmt.Sprintf("%s\n\n$ %s", description, command))

	confirmed, err := deps.UX.AskYesNo("Run this command?")
	if err != nil {
		return Failure(fmt.Sprintf("failed to read confirmation: %v", err))
	}
	if !confirmed {
		logging.Tools("propose_fix_by_command: user declined %q", command)
		return Skipped(map[string]any{
			"command":           command,
			"user_confirmation": false,
		})
	}

	res := deps.Runner.Run(ctx, command, deps.Cfg.CommandTimeout())
	return Success(map[string]any{
		"command":           command,
		"user_confirmation": true,
		"output":            res.Output,
		"exit_code":         res.ExitCode,
		"timed_out":         res.TimedOut,
		"ok":                res.Ok,
	})
}
