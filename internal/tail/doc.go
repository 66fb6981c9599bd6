// Package tail implements the incremental CSV tailing engine: per-file
// tracking state, header detection, and extraction of typed measurements
// from newly appended data rows.
//
// Each watched file is represented by a FileState holding a byte cursor and
// a pending partial-line buffer. ReadNew consumes only bytes appended since
// the last call, reassembles complete lines, discovers the header row when
// it is not yet known, and emits one Measurement per bound channel value.
// The cursor counts only bytes consumed into complete lines, so emission is
// invariant to how appends are chunked across poll cycles.
//
// Filesystem races (file missing, permission denied, vanished mid-read) are
// treated as "no data this cycle", never as errors. A file that shrinks
// below the consumed position is treated as truncated and its state is reset
// to rediscover the header from byte 0.
package tail
