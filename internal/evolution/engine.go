package evolution

import (
	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
)

// Engine applies blocking-error transitions to the agent context as new
// command output is observed.
type Engine struct{}

// NewEngine creates an error evolution engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Update parses output observed at step and applies the state transitions:
//
//   - no error parsed: a previous blocking error (if any) is archived as
//     solved at this step
//   - new error or progression: the previous error is archived as solved at
//     step-1 and the new one installed
//   - same error: the blocking error's last_seen_step advances
//
// Every observation appends to the progression ledger.
func (e *Engine) Update(ctx *memory.AgentContext, step int, output string) Comparison {
	prev := ctx.CurrentBlockingError
	cur := Parse(output)
	cmp := Compare(prev, cur)

	switch cmp {
	case Resolved:
		ctx.ArchiveSolved(step)
		logging.Knowledge("Error resolved at step %d: %s", step, prev.Type)
	case NewError, Progression:
		if prev != nil {
			ctx.ArchiveSolved(step - 1)
		}
		ctx.InstallCurrentError(cur, step)
		logging.Knowledge("Blocking error at step %d: %s (%s)", step, cur.Type, cmp)
	case SameError:
		ctx.CurrentBlockingError.LastSeenStep = step
	}

	ctx.AppendProgression(step, cur, prev)
	return cmp
}
