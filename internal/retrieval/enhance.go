package retrieval

import (
	"regexp"
	"strings"
)

// =============================================================================
// QUERY ENHANCEMENT
// =============================================================================

// Error-shaped fragments worth echoing into the query.
var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)error:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)exception:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)failed:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\b(cannot\s+\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)\b(undefined(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)\b(null(?:\s+\w+)?)`),
}

// Code-shaped fragments: stack frames, file names, calls, imports.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bat\s+([\w$.<>]+)`),
	regexp.MustCompile(`\b([\w./-]+\.(?:py|js|ts|jsx|tsx|java|go|rb|rs|php|c|cpp|cs))\b`),
	regexp.MustCompile(`\b([a-zA-Z_]\w{2,})\s*\(`),
	regexp.MustCompile(`\bimport\s+([\w.]+)`),
	regexp.MustCompile(`\bfrom\s+([\w.]+)\s+import`),
	regexp.MustCompile(`\brequire\(['"]([^'"]+)['"]\)`),
}

// EnhanceQuery appends error- and code-pattern captures to the raw query so
// both modalities see the distinguishing fragments of a failure log.
func EnhanceQuery(raw string) string {
	seen := make(map[string]bool)
	var additions []string

	capture := func(patterns []*regexp.Regexp) {
		for _, re := range patterns {
			for _, match := range re.FindAllStringSubmatch(raw, -1) {
				if len(match) < 2 {
					continue
				}
				frag := strings.TrimSpace(match[1])
				if frag == "" || seen[frag] {
					continue
				}
				seen[frag] = true
				additions = append(additions, frag)
			}
		}
	}
	capture(errorPatterns)
	capture(codePatterns)

	if len(additions) == 0 {
		return raw
	}
	return raw + " " + strings.Join(additions, " ")
}
