package redact

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/archcheck/internal/changes"
)

const placeholder = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// Key assignments: api_key = "...", api-key: ...
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`(?s)-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----.*?-----END\s+([A-Z]+\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`),
	// user:password@host in connection strings
	regexp.MustCompile(`([a-z][a-z0-9+.-]*://[^:/\s]+):[^@/\s]{3,}@`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`hf_[A-Za-z0-9]{30,}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllStringFunc(result, func(match string) string {
			return placeholder
		})
	}
	return result
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// "**/.env" also matches a bare ".env"
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			base := filepath.Base(path)
			matched, err = filepath.Match(cleanPattern, base)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Content redacts secrets from content, or replaces it entirely when path
// matches one of redactPaths.
func Content(content, path string, redactPaths []string) string {
	if content == "" {
		return ""
	}
	if ShouldRedactPath(path, redactPaths) {
		return placeholder + " (file content redacted by path policy)\n"
	}
	return Secrets(content)
}

// Changes returns a copy of fcs with both snapshots of every file redacted.
// A file whose only edit was a secret value becomes unchanged and is then
// left out of the summary.
func Changes(fcs []changes.FileChange, redactPaths []string) []changes.FileChange {
	out := make([]changes.FileChange, len(fcs))
	for i, fc := range fcs {
		out[i] = changes.FileChange{
			Path:   fc.Path,
			Before: Content(fc.Before, fc.Path, redactPaths),
			After:  Content(fc.After, fc.Path, redactPaths),
		}
	}
	return out
}
