package tail

// Measurement is one channel value read from a data row. Timestamp is the
// row's first cell verbatim; the core never reparses or normalizes it.
// Origin is the file name the value was read from, kept for provenance.
type Measurement struct {
	Timestamp string
	Source    string
	Channel   string
	Value     float64
	Origin    string
}
