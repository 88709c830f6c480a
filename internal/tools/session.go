package tools

import (
	"context"
	"fmt"

	"debugnerd/internal/logging"
)

// FinalStatuses are the accepted terminal outcomes for finish_debugging.
var FinalStatuses = []string{"resolved", "guidance_provided", "cannot_resolve", "aborted_by_user_request"}

// =============================================================================
// ask_user_for_clarification
// =============================================================================

func askUserTool(deps Deps) *Tool {
	return &Tool{
		Name:        "ask_user_for_clarification",
		Description: "Ask the user a question and wait for their reply",
		Category:    CategoryInteraction,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeAskUser(deps, args) },
		Schema: ToolSchema{
			Required: []string{"question_for_user"},
			Properties: map[string]Property{
				"question_for_user": {
					Type:        "string",
					Description: "Question to present to the user",
				},
			},
		},
	}
}

func executeAskUser(deps Deps, args map[string]any) map[string]any {
	question := stringArg(args, "question_for_user")

	reply, err := deps.UX.AskInput(question)
	if err != nil {
		return Failure(fmt.Sprintf("failed to read user input: %v", err))
	}
	logging.UX("clarification answered (%d chars)", len(reply))

	return Success(map[string]any{
		"question":   question,
		"user_reply": reply,
	})
}

// =============================================================================
// finish_debugging
// =============================================================================

func finishDebuggingTool() *Tool {
	return &Tool{
		Name:        "finish_debugging",
		Description: "End the session with a conclusion and a final status",
		Category:    CategoryInteraction,
		Execute:     func(ctx context.Context, args map[string]any) map[string]any { return executeFinish(args) },
		Schema: ToolSchema{
			Required: []string{"conclusion_message_for_user", "final_status"},
			Properties: map[string]Property{
				"conclusion_message_for_user": {
					Type:        "string",
					Description: "Closing summary shown to the user",
				},
				"final_status": {
					Type:        "string",
					Description: "Terminal outcome of the session",
					Enum:        []any{"resolved", "guidance_provided", "cannot_resolve", "aborted_by_user_request"},
				},
			},
		},
	}
}

func executeFinish(args map[string]any) map[string]any {
	finalStatus := stringArg(args, "final_status")
	if !containsString(FinalStatuses, finalStatus) {
		return Failure(fmt.Sprintf("invalid final_status %q", finalStatus))
	}
	return Finished(map[string]any{
		"conclusion":   stringArg(args, "conclusion_message_for_user"),
		"final_status": finalStatus,
	})
}
