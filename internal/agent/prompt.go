package agent

import (
	"fmt"
	"sort"
	"strings"

	"debugnerd/internal/memory"
)

// =============================================================================
// PROMPT ASSEMBLY
// =============================================================================

const promptPreamble = `You are an expert debugging assistant working inside a user's project.

You MUST respond with exactly one JSON object and nothing else:
{"thought": "<your reasoning>", "tool_to_use": "<tool name>", "tool_parameters": {<parameters>}}

Rules:
- Only use tools from the AVAILABLE TOOLS list below. No other tool exists.
- Never take destructive actions; fixes are proposed and require user confirmation.
- Never guess or invent file paths. Use paths you have discovered or that appear in the error output.
- The current_blocking_error is your single focus until it is resolved.
- When the problem is resolved, or you have given all the guidance you can, call finish_debugging.`

// BuildPrompt renders the planner prompt from an optimized context. The
// output is a deterministic function of the context: preamble, status
// summary, serialized context, then step imperatives.
func BuildPrompt(ctx *memory.AgentContext) (string, error) {
	var sb strings.Builder

	sb.WriteString(promptPreamble)
	sb.WriteString("\n\nAVAILABLE TOOLS:\n")
	for _, t := range ctx.AvailableTools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}

	sb.WriteString("\n")
	sb.WriteString(statusSummary(ctx))

	serialized, err := memory.SerializeForPrompt(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to serialize context: %w", err)
	}
	sb.WriteString("\nFULL CONTEXT (JSON):\n")
	sb.WriteString(serialized)
	sb.WriteString("\n")

	sb.WriteString(stepImperatives(ctx))
	return sb.String(), nil
}

func statusSummary(ctx *memory.AgentContext) string {
	var sb strings.Builder
	sb.WriteString("STATUS SUMMARY:\n")

	if len(ctx.SolvedIssues) > 0 {
		sb.WriteString("Solved so far:\n")
		for _, s := range ctx.SolvedIssues {
			fmt.Fprintf(&sb, "- step %d: %s (%s)\n", s.ResolutionStep, s.Error.Message, s.Error.Type)
		}
	}

	if err := ctx.CurrentBlockingError; err != nil {
		fmt.Fprintf(&sb, "Current blocking error: [%s] %s\n", err.Type, err.Message)
		if len(err.FileRefs) > 0 {
			fmt.Fprintf(&sb, "Files involved: %s\n", strings.Join(err.FileRefs, ", "))
		}
	} else {
		sb.WriteString("Current blocking error: none\n")
	}

	fs := ctx.FileState
	if len(fs.DiscoveredFiles) > 0 {
		fmt.Fprintf(&sb, "Available files: %s\n", strings.Join(fs.DiscoveredFiles, ", "))
	}
	if fs.PrimaryErrorFile != "" {
		fmt.Fprintf(&sb, "Primary error file: %s\n", fs.PrimaryErrorFile)
	}
	names := make([]string, 0, len(fs.FileMappings))
	for name := range fs.FileMappings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if resolved := fs.FileMappings[name]; name != resolved {
			fmt.Fprintf(&sb, "File mapping: %s -> %s\n", name, resolved)
		}
	}

	if structure := ctx.KnowledgeBase.FileStructure; structure != nil {
		meta := structure.Metadata
		fmt.Fprintf(&sb, "Project: %d files (%d code, %d debug-relevant), relevant extensions: %s\n",
			meta.TotalFiles, meta.CodeFiles, meta.RelevantFiles,
			strings.Join(meta.RelevantExtensions, " "))
	}
	return sb.String()
}

func stepImperatives(ctx *memory.AgentContext) string {
	if len(ctx.SessionHistory) == 0 {
		return "\nThis is your FIRST step. Analyze the initial command output above, " +
			"decide which file or evidence to inspect first, and respond with one JSON action.\n"
	}
	return fmt.Sprintf("\nThis is step %d. Review the history above, avoid repeating prior actions, "+
		"and respond with one JSON action.\n", len(ctx.SessionHistory)+1)
}
