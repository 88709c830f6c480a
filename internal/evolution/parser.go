// Package evolution tracks which error is currently blocking progress.
// It parses raw command output into structured error records, compares
// successive observations, and drives the blocking-error transitions on
// the agent context.
package evolution

import (
	"regexp"
	"strconv"
	"strings"

	"debugnerd/internal/memory"
)

// Error type names, ordered by parse priority.
const (
	TypeModuleNotFound  = "module_not_found"
	TypeImportError     = "import_error"
	TypeKeyError        = "key_error"
	TypeFileNotFound    = "file_not_found"
	TypeSyntaxError     = "syntax_error"
	TypeAttributeError  = "attribute_error"
	TypeValueError      = "value_error"
	TypeTypeError       = "type_error"
	TypeGenericError    = "generic_error"
	TypeException       = "exception"
	TypeCommandNotFound = "command_not_found"
)

type pattern struct {
	errType string
	re      *regexp.Regexp
}

// patterns is the priority-ordered parse table. The first match wins.
var patterns = []pattern{
	{TypeModuleNotFound, regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`)},
	{TypeImportError, regexp.MustCompile(`ImportError: (.+)`)},
	{TypeKeyError, regexp.MustCompile(`KeyError: (.+)`)},
	{TypeFileNotFound, regexp.MustCompile(`FileNotFoundError: (.+)`)},
	{TypeFileNotFound, regexp.MustCompile(`No such file or directory:? ?(.*)`)},
	{TypeSyntaxError, regexp.MustCompile(`SyntaxError: (.+)`)},
	{TypeAttributeError, regexp.MustCompile(`AttributeError: (.+)`)},
	{TypeValueError, regexp.MustCompile(`ValueError: (.+)`)},
	{TypeTypeError, regexp.MustCompile(`TypeError: (.+)`)},
	{TypeGenericError, regexp.MustCompile(`(?m)^.*Error: (.+)$`)},
	{TypeException, regexp.MustCompile(`(?m)^.*Exception: (.+)$`)},
	{TypeCommandNotFound, regexp.MustCompile(`(.+): command not found`)},
	{TypeCommandNotFound, regexp.MustCompile(`'(.+)' is not recognized`)},
}

var (
	fileRefRe = regexp.MustCompile(`File "([^"]+)"`)
	lineRefRe = regexp.MustCompile(`line (\d+)`)
)

// Parse extracts a structured error record from combined command output.
// Returns nil when no known error pattern matches.
func Parse(output string) *memory.ErrorRecord {
	if strings.TrimSpace(output) == "" {
		return nil
	}

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(output)
		if m == nil {
			continue
		}
		message := ""
		if len(m) > 1 {
			message = strings.TrimSpace(m[1])
		}
		return &memory.ErrorRecord{
			Type:      p.errType,
			Message:   message,
			FileRefs:  extractFileRefs(output),
			LineRefs:  extractLineRefs(output),
			RawOutput: output,
			Status:    "active",
		}
	}
	return nil
}

func extractFileRefs(output string) []string {
	var refs []string
	seen := map[string]bool{}
	for _, m := range fileRefRe.FindAllStringSubmatch(output, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

func extractLineRefs(output string) []int {
	var refs []int
	seen := map[int]bool{}
	for _, m := range lineRefRe.FindAllStringSubmatch(output, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !seen[n] {
			seen[n] = true
			refs = append(refs, n)
		}
	}
	return refs
}
