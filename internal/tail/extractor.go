package tail

import (
	"math"
	"strconv"
	"strings"
)

// extractRow turns one data row into zero or more Measurements using the
// file's channel bindings.
//
// The row-validity gate: a row with fewer than two cells, or whose row
// marker (cell index 1) does not parse as an integer, is not a data row.
// Per bound channel, the cell must be in range, non-blank, and parse as a
// finite float; anything else silently skips that channel for this row.
// Partial rows are normal, not an error.
func extractRow(row []string, s *FileState) []Measurement {
	if len(row) < 2 {
		return nil
	}
	if _, err := strconv.Atoi(strings.TrimSpace(row[1])); err != nil {
		return nil
	}

	timestamp := strings.TrimSpace(row[0])
	var out []Measurement
	for _, binding := range s.Bindings {
		if binding.Column >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[binding.Column])
		if cell == "" {
			continue
		}
		value, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
			continue
		}
		out = append(out, Measurement{
			Timestamp: timestamp,
			Source:    s.Source,
			Channel:   binding.Channel,
			Value:     value,
			Origin:    s.origin,
		})
	}
	return out
}
