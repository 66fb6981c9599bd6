package tail

import "path/filepath"

// Binding fixes where a named channel's value appears in each data row.
// Column is the absolute column index from the header row; indices may be
// non-contiguous because blank header cells are never bound.
type Binding struct {
	Channel string
	Column  int
}

// FileState tracks the consumed position within one watched file. It is
// owned by the file set manager and mutated only while that file is being
// processed.
//
// Cursor counts only bytes consumed into complete lines; pending holds the
// bytes of a trailing unterminated line. The effective read offset is
// Cursor + len(pending).
type FileState struct {
	Path   string
	Source string

	HeaderKnown bool
	Bindings    []Binding
	Cursor      int64

	origin  string
	pending []byte
}

// NewFileState creates tracking state for a newly discovered file, starting
// in the Discovering phase at byte 0.
func NewFileState(path, source string) *FileState {
	return &FileState{
		Path:   path,
		Source: source,
		origin: filepath.Base(path),
	}
}

// reset returns the state to Discovering at byte 0 after a truncation.
func (s *FileState) reset() {
	s.HeaderKnown = false
	s.Bindings = nil
	s.Cursor = 0
	s.pending = nil
}
