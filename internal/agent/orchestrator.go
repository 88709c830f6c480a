// Package agent drives the bounded debugging loop: it seeds the knowledge
// base from the initial command output, then alternates planner calls and
// tool dispatch until a terminal state is reached, keeping the agent
// context consistent through every transition.
package agent

import (
	"context"
	"fmt"
	"time"

	"debugnerd/internal/config"
	"debugnerd/internal/evolution"
	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
	"debugnerd/internal/planner"
	"debugnerd/internal/tools"
)

// =============================================================================
// OUTCOMES
// =============================================================================

// Terminal session statuses.
const (
	StatusResolved         = "resolved"
	StatusGuidanceProvided = "guidance_provided"
	StatusCannotResolve    = "cannot_resolve"
	StatusAbortedByUser    = "aborted_by_user_request"
	StatusStepsExhausted   = "steps_exhausted"
)

// Outcome is the terminal result of a debugging session.
type Outcome struct {
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	StepsTaken int    `json:"steps_taken"`
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator owns one agentic debugging session.
type Orchestrator struct {
	agent     *memory.AgentContext
	catalog   *tools.Catalog
	planner   planner.Planner
	evolution *evolution.Engine
	optimizer *memory.Optimizer
	cfg       *config.Config
}

// New wires an orchestrator around an already-seeded agent context.
func New(agent *memory.AgentContext, catalog *tools.Catalog, p planner.Planner, optimizer *memory.Optimizer, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		agent:     agent,
		catalog:   catalog,
		planner:   p,
		evolution: evolution.NewEngine(),
		optimizer: optimizer,
		cfg:       cfg,
	}
}

// Context exposes the session's agent context for persistence and display.
func (o *Orchestrator) Context() *memory.AgentContext {
	return o.agent
}

// Run executes the debugging loop until a terminal state. The returned
// outcome is always valid and the returned error is always nil: a prompt
// that cannot be serialized is handled like any other planner failure and
// goes through the single recovery step.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	logging.Agent("session %s started: max_steps=%d", o.agent.SessionID, o.cfg.Agent.MaxSessionSteps)
	consecutiveFailures := 0
	recoveredLastPlan := false

	for {
		if ctx.Err() != nil {
			return o.finish(StatusAbortedByUser, "Session interrupted by user."), nil
		}

		step := o.agent.NextStep()
		if step > o.cfg.Agent.MaxSessionSteps {
			return o.finish(StatusStepsExhausted, fmt.Sprintf("Step limit of %d reached without resolution.", o.cfg.Agent.MaxSessionSteps)), nil
		}
		if consecutiveFailures >= o.cfg.Agent.MaxConsecutiveFailures {
			return o.finish(StatusCannotResolve, fmt.Sprintf("Stopping after %d consecutive failed steps.", consecutiveFailures)), nil
		}

		action, err := o.plan(ctx)
		if err != nil {
			logging.Get(logging.CategoryAgent).Warn("planner failed at step %d: %v", step, err)
			if recoveredLastPlan {
				return o.finish(StatusCannotResolve, "Planner output could not be recovered."), nil
			}
			if err := o.recoverFromPlanner(ctx, step); err != nil {
				return o.finish(StatusCannotResolve, "Planner output could not be recovered."), nil
			}
			recoveredLastPlan = true
			continue
		}
		recoveredLastPlan = false

		logging.Agent("step %d: %s (%s)", step, action.ToolToUse, action.Thought)

		if err := o.catalog.ValidateCall(action.ToolToUse, action.ToolParameters); err != nil {
			result := tools.Failure(err.Error())
			o.appendStep(step, action, result)
			consecutiveFailures++
			o.pace(ctx)
			continue
		}

		sig := Signature(o.agent, action.ToolToUse, action.ToolParameters)
		if dup, found := o.agent.FindDuplicate(sig); found {
			logging.Agent("step %d: duplicate of step %d, skipping", step, dup.StepNo)
			result := tools.Skipped(map[string]any{
				"duplicate_of_step": dup.StepNo,
				"prior_result":      dup.Result,
			})
			o.appendStep(step, action, result)
			o.pace(ctx)
			continue
		}

		result, err := o.catalog.Execute(ctx, action.ToolToUse, action.ToolParameters)
		if err != nil {
			result = tools.Failure(err.Error())
		}
		o.appendStep(step, action, result)

		if output, ok := result["output"].(string); ok && output != "" {
			transition := o.evolution.Update(o.agent, step, output)
			logging.Agent("step %d: error evolution -> %s", step, transition)
		}

		switch tools.ResultStatus(result) {
		case tools.StatusFinished:
			status, _ := result["final_status"].(string)
			conclusion, _ := result["conclusion"].(string)
			return o.finish(status, conclusion), nil
		case tools.StatusError:
			consecutiveFailures++
		case tools.StatusSuccess:
			consecutiveFailures = 0
		}

		o.pace(ctx)
	}
}

// plan asks the planner for the next action and decodes it.
func (o *Orchestrator) plan(ctx context.Context) (*planner.Action, error) {
	optimized := o.optimizer.Optimize(o.agent)

	prompt, err := BuildPrompt(optimized)
	if err != nil {
		return nil, err
	}
	logging.AgentDebug("prompt assembled: ~%d tokens", memory.EstimateTokens(prompt))

	planCtx, cancel := context.WithTimeout(ctx, o.cfg.PlannerTimeout())
	defer cancel()

	raw, err := o.planner.Plan(planCtx, prompt)
	if err != nil {
		return nil, err
	}
	action, err := planner.ParseAction(raw)
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// recoverFromPlanner synthesizes a single ask_user_for_clarification step
// when the planner fails.
func (o *Orchestrator) recoverFromPlanner(ctx context.Context, step int) error {
	recovery := &planner.Action{
		Thought:   "The planning model returned unusable output; asking the user how to proceed.",
		ToolToUse: "ask_user_for_clarification",
		ToolParameters: map[string]any{
			"question_for_user": "I could not determine the next debugging step automatically. How would you like to proceed?",
		},
	}

	result, err := o.catalog.Execute(ctx, recovery.ToolToUse, recovery.ToolParameters)
	if err != nil || tools.ResultStatus(result) != tools.StatusSuccess {
		return fmt.Errorf("recovery clarification failed")
	}
	o.appendStep(step, recovery, result)
	o.pace(ctx)
	return nil
}

func (o *Orchestrator) appendStep(step int, action *planner.Action, result map[string]any) {
	sig := Signature(o.agent, action.ToolToUse, action.ToolParameters)
	o.agent.AppendStep(action.Thought, memory.Action{
		Tool:       action.ToolToUse,
		Parameters: action.ToolParameters,
	}, result, sig)
	logging.AgentDebug("step %d recorded: %s -> %s", step, action.ToolToUse, tools.ResultStatus(result))
}

func (o *Orchestrator) finish(status, conclusion string) Outcome {
	valid := status == StatusStepsExhausted
	for _, s := range tools.FinalStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		status = StatusCannotResolve
	}

	out := Outcome{
		Status:     status,
		Conclusion: conclusion,
		StepsTaken: o.agent.CurrentStep(),
	}
	logging.Agent("session %s finished: status=%s steps=%d", o.agent.SessionID, out.Status, out.StepsTaken)
	return out
}

// pace inserts the inter-step delay, returning early on cancellation.
func (o *Orchestrator) pace(ctx context.Context) {
	delay := o.cfg.PacingDelay()
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
