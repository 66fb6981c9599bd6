package tail

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
)

// ReadNew consumes bytes appended to the file since the last call and
// returns the Measurements they contain, in row order.
//
// If the file shrank below the consumed position it is treated as truncated:
// the state resets to Discovering at byte 0 and the current contents are
// processed from the start in this same call. A trailing fragment without a
// line terminator is held back in the pending buffer and contributes no
// Measurements until a later call completes it. Transient filesystem races
// (missing file, permission denied, vanished mid-read) yield an empty result
// and leave the state intact.
func ReadNew(s *FileState) ([]Measurement, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		if isTransient(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.Size() < s.Cursor+int64(len(s.pending)) {
		s.reset()
	}

	file, err := os.Open(s.Path)
	if err != nil {
		if isTransient(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	offset := s.Cursor + int64(len(s.pending))
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		if isTransient(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	data := raw
	if len(s.pending) > 0 {
		data = append(append([]byte{}, s.pending...), raw...)
	}

	var out []Measurement
	consumed := 0
	for {
		idx := bytes.IndexByte(data[consumed:], '\n')
		if idx < 0 {
			break
		}
		lineEnd := consumed + idx + 1
		atStart := s.Cursor == 0 && consumed == 0
		out = append(out, s.processLine(data[consumed:lineEnd], atStart)...)
		consumed = lineEnd
	}

	s.pending = append([]byte(nil), data[consumed:]...)
	s.Cursor += int64(consumed)
	return out, nil
}

// PrimeAtEnd scans the file's existing complete lines for a header without
// emitting any Measurements, then positions the state at the file's current
// end. Used when a file is first tracked without backfill, so pre-existing
// rows are never reprocessed.
func PrimeAtEnd(s *FileState) error {
	file, err := os.Open(s.Path)
	if err != nil {
		if isTransient(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		if isTransient(err) {
			return nil
		}
		return err
	}

	consumed := 0
	for !s.HeaderKnown {
		idx := bytes.IndexByte(raw[consumed:], '\n')
		if idx < 0 {
			break
		}
		lineEnd := consumed + idx + 1
		if text, ok := decodeLine(raw[consumed:lineEnd], consumed == 0); ok {
			if row, ok := parseRow(text); ok {
				if bindings, found := detectHeader(row); found {
					s.Bindings = bindings
					s.HeaderKnown = true
				}
			}
		}
		consumed = lineEnd
	}

	// Position at the end of the last complete line; an unterminated tail
	// stays in pending so the cursor never splits a line.
	end := len(raw)
	for end > consumed && raw[end-1] != '\n' {
		end--
	}
	s.Cursor = int64(end)
	s.pending = append([]byte(nil), raw[end:]...)
	return nil
}

// processLine handles one complete raw line: decode, CSV-split, then either
// attempt header detection (while Discovering) or extract measurements.
// A line that triggers header recognition is consumed and never re-emitted
// as data.
func (s *FileState) processLine(line []byte, atStart bool) []Measurement {
	text, ok := decodeLine(line, atStart)
	if !ok {
		return nil
	}
	row, ok := parseRow(text)
	if !ok || len(row) == 0 {
		return nil
	}
	if !s.HeaderKnown {
		if bindings, found := detectHeader(row); found {
			s.Bindings = bindings
			s.HeaderKnown = true
		}
		return nil
	}
	return extractRow(row, s)
}

func isTransient(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
