package agent

import (
	"debugnerd/internal/memory"
	"debugnerd/internal/tools"
)

// =============================================================================
// ACTION SIGNATURES
// =============================================================================

// pathParams are the tool parameters normalized to project-relative form
// before signing, so "./etl.py", "etl.py" and an absolute path under the
// working directory all produce the same signature.
var pathParams = map[string]bool{
	"file_path":      true,
	"directory_path": true,
}

// Signature builds the dedup signature for a planned action: the tool name
// plus its parameters in sorted key order, with path parameters normalized
// against the session's working directory.
func Signature(agent *memory.AgentContext, tool string, params map[string]any) string {
	normalized := make(map[string]any, len(params))
	for k, v := range params {
		if pathParams[k] {
			if s, ok := v.(string); ok && s != "" {
				normalized[k] = agent.RelativePath(s)
				continue
			}
		}
		normalized[k] = v
	}
	return tools.CallSignature(tool, normalized)
}
