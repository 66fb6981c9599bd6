package watcher

import (
	"path/filepath"
	"regexp"
	"strings"
)

// FilePattern matches the export files the instrument software produces.
const FilePattern = "AutoExportTrace_*.csv"

const exportPrefix = "AutoExportTrace_"

var sourcePattern = regexp.MustCompile(`(?i)AutoExportTrace_(\S+)\s`)

// SourceFromName derives the logical source label from an export file name.
// Export names look like "AutoExportTrace_iso 2024-06-01 10-30-00.csv"; the
// token between the prefix and the first space is the source. Names without
// a space fall back to the remainder after the prefix, extension stripped,
// so every tracked file gets a non-empty label.
func SourceFromName(name string) string {
	if m := sourcePattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}

	trimmed := name
	if idx := strings.Index(strings.ToLower(trimmed), strings.ToLower(exportPrefix)); idx >= 0 {
		trimmed = trimmed[idx+len(exportPrefix):]
	}
	trimmed = strings.TrimSuffix(trimmed, filepath.Ext(trimmed))
	if trimmed == "" {
		return name
	}
	return trimmed
}
