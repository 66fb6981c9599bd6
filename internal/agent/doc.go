// Package agent wires the watcher, ingester, and store into the long-lived
// harvesting process and owns its runtime concerns: the single-instance
// lock, the per-run log file, the PID file, and signal-driven shutdown with
// a final flush.
package agent
