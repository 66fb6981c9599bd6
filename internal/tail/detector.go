package tail

import (
	"bytes"
	"encoding/csv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	// HeaderLeader is the exact first-cell literal of the primary export
	// variant's header row.
	HeaderLeader = "Scan Sweep Time (Sec)"
	// RowMarkerLabel is the second-cell label identifying the header row in
	// export variants whose leading column differs.
	RowMarkerLabel = "scan number"
)

// detectHeader reports whether row is a header row and, if so, returns the
// channel bindings. Two export variants exist; they are tried in fixed
// priority order: the exact leading literal first, then the structural
// row-marker match. Channels bind from column index 2 onward; blank header
// cells are skipped and the original absolute column index is retained.
func detectHeader(row []string) ([]Binding, bool) {
	if len(row) < 2 {
		return nil, false
	}
	if strings.TrimSpace(row[0]) == HeaderLeader {
		return bindChannels(row), true
	}
	if strings.EqualFold(strings.TrimSpace(row[1]), RowMarkerLabel) {
		return bindChannels(row), true
	}
	return nil, false
}

func bindChannels(row []string) []Binding {
	bindings := make([]Binding, 0, len(row)-2)
	for idx := 2; idx < len(row); idx++ {
		name := strings.TrimSpace(row[idx])
		if name == "" {
			continue
		}
		bindings = append(bindings, Binding{Channel: name, Column: idx})
	}
	return bindings
}

// decodeLine strips the line terminator and decodes the raw bytes. The
// decoder replaces invalid sequences rather than failing; atStart
// additionally strips a byte-order marker. A line that still cannot be
// decoded is skipped by the caller, never fatal.
func decodeLine(line []byte, atStart bool) (string, bool) {
	line = bytes.TrimRight(line, "\r\n")
	decoder := unicode.UTF8.NewDecoder()
	if atStart {
		decoder = unicode.UTF8BOM.NewDecoder()
	}
	decoded, err := decoder.Bytes(line)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// parseRow splits one decoded line into CSV cells. Malformed lines are
// skipped, not fatal.
func parseRow(text string) ([]string, bool) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	row, err := reader.Read()
	if err != nil {
		return nil, false
	}
	return row, true
}
