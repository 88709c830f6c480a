package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"debugnerd/internal/config"
	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
	"debugnerd/internal/tactile"
	"debugnerd/internal/ux"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps carries everything the catalog's tools need at execution time.
type Deps struct {
	Agent  *memory.AgentContext
	Runner tactile.Runner
	UX     ux.Interactor
	Cfg    *config.Config
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is the fixed tool set. It is sealed at construction: the planner
// can only dispatch to tools registered here, and nothing registers later.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewCatalog builds the full catalog bound to the given dependencies.
func NewCatalog(deps Deps) *Catalog {
	c := &Catalog{tools: make(map[string]*Tool)}

	c.add(listDirectoryTool(deps))
	c.add(readFileTool(deps))
	c.add(runDiagnosticTool(deps))
	c.add(searchFileContentTool(deps))
	c.add(fileStructureTool(deps))
	c.add(proposeCodePatchTool(deps))
	c.add(proposeFixByCommandTool(deps))
	c.add(askUserTool(deps))
	c.add(finishDebuggingTool())

	logging.Tools("catalog sealed with %d tools", len(c.tools))
	return c
}

func (c *Catalog) add(t *Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Name == "" || t.Execute == nil {
		panic(fmt.Sprintf("tools: invalid catalog entry %q", t.Name))
	}
	if _, exists := c.tools[t.Name]; exists {
		panic(fmt.Sprintf("tools: duplicate catalog entry %q", t.Name))
	}
	c.tools[t.Name] = t
	c.order = append(c.order, t.Name)
}

// Get looks up a tool by name.
func (c *Catalog) Get(name string) (*Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// Has reports catalog membership.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the catalog tool names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Descriptors renders the catalog for prompt assembly.
func (c *Catalog) Descriptors() []memory.ToolDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]memory.ToolDescriptor, 0, len(c.order))
	for _, name := range c.order {
		t := c.tools[name]
		params := make(map[string]any, len(t.Schema.Properties))
		for pname, prop := range t.Schema.Properties {
			p := map[string]any{
				"type":        prop.Type,
				"description": prop.Description,
			}
			if prop.Default != nil {
				p["default"] = prop.Default
			}
			if len(prop.Enum) > 0 {
				p["enum"] = prop.Enum
			}
			p["required"] = containsString(t.Schema.Required, pname)
			params[pname] = p
		}
		out = append(out, memory.ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// placeholderFragments maps parameter names to path fragments that mark a
// planner hallucination rather than a real project path.
var placeholderFragments = map[string][]string{
	"file_path":      {"path/to/data", "path/to/file", "file.csv", "data.csv"},
	"directory_path": {"path/to/data", "path/to/file"},
}

// ValidateCall checks catalog membership, required parameters, and
// placeholder paths before a tool is dispatched.
func (c *Catalog) ValidateCall(name string, args map[string]any) error {
	t, ok := c.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	for _, req := range t.Schema.Required {
		v, present := args[req]
		if !present || v == nil {
			return fmt.Errorf("%w: %s.%s", ErrMissingParameter, name, req)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s.%s", ErrMissingParameter, name, req)
		}
	}

	for param, fragments := range placeholderFragments {
		value, _ := args[param].(string)
		if value == "" {
			continue
		}
		lowered := strings.ToLower(value)
		for _, frag := range fragments {
			if strings.Contains(lowered, frag) {
				return fmt.Errorf("%w: %s=%q", ErrPlaceholderPath, param, value)
			}
		}
	}
	return nil
}

// Execute validates and dispatches one tool call. Validation failures are
// returned as errors; tool-level failures come back as status=error results.
func (c *Catalog) Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if err := c.ValidateCall(name, args); err != nil {
		return nil, err
	}
	t, _ := c.Get(name)

	timer := logging.StartTimer(logging.CategoryTools, name)
	result := t.Execute(ctx, args)
	timer.Stop()

	logging.Tools("%s -> %s", name, ResultStatus(result))
	return result, nil
}

// CallSignature builds the dedup signature for a tool invocation: the tool
// name plus its arguments in sorted key order.
func CallSignature(name string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range keys {
		fmt.Fprintf(&sb, "|%s=%v", k, args[k])
	}
	return sb.String()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
