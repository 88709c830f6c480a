package memory

import (
	"strings"
)

var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".cpp": true, ".c": true, ".rb": true, ".go": true,
	".rs": true, ".php": true, ".swift": true, ".kt": true, ".cs": true,
}

var configExtensions = map[string]bool{
	".yaml": true, ".yml": true, ".env": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true,
}

// IsCodeFile reports whether ext is a recognized code extension.
func IsCodeFile(ext string) bool {
	return codeExtensions[strings.ToLower(ext)]
}

// IsDebugRelevant decides whether a scanned file belongs in the knowledge
// base flat file list.
func IsDebugRelevant(f FileEntry) bool {
	ext := strings.ToLower(f.Extension)
	name := strings.ToLower(f.Name)

	if codeExtensions[ext] {
		return true
	}
	if name == "package.json" && !strings.Contains(f.Path, "node_modules") && f.Depth <= 1 {
		return true
	}
	if name == "package-lock.json" {
		return true
	}
	if configExtensions[ext] {
		return true
	}
	if ext == ".md" && f.Depth <= 1 {
		return true
	}
	if strings.Contains(name, "requirements") || strings.Contains(name, "dockerfile") || strings.Contains(name, "makefile") {
		return true
	}
	if f.IsHidden && f.SizeBytes < 5000 {
		return true
	}
	if f.Depth <= 1 && f.SizeBytes < 1000 {
		return true
	}
	return false
}
