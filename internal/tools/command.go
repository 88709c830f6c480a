package tools

import (
	"context"
	"fmt"

	"debugnerd/internal/tactile"
)

// =============================================================================
// run_diagnostic_command
// =============================================================================

func runDiagnosticTool(deps Deps) *Tool {
	return &Tool{
		Name:        "run_diagnostic_command",
		Description: "Run a read-only shell command and capture its combined output",
		Category:    CategoryDiagnostic,
		Execute: func(ctx context.Context, args map[string]any) map[string]any {
			return executeRunDiagnostic(ctx, deps, args)
		},
		Schema: ToolSchema{
			Required: []string{"command_string"},
			Properties: map[string]Property{
				"command_string": {
					Type:        "string",
					Description: "Shell command to execute; mutating commands are refused",
				},
			},
		},
	}
}

func executeRunDiagnostic(ctx context.Context, deps Deps, args map[string]any) map[string]any {
	command := stringArg(args, "command_string")

	denylist := deps.Cfg.Execution.DenylistTokens
	if len(denylist) == 0 {
		denylist = tactile.DefaultDenylist
	}
	if err := tactile.CheckDiagnostic(command, denylist); err != nil {
		return Failure(fmt.Sprintf("command refused: %v", err))
	}

	res := deps.Runner.Run(ctx, command, deps.Cfg.DiagnosticTimeout())
	return Success(map[string]any{
		"command_string": command,
		"output":         res.Output,
		"exit_code":      res.ExitCode,
		"timed_out":      res.TimedOut,
		"ok":             res.Ok,
	})
}
