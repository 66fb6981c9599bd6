// Package watcher maintains the set of tracked instrument exports and drives
// the polling loop.
//
// Each cycle reconciles the directory glob against the tracked set, tails
// every tracked file for newly appended rows, and forwards the extracted
// measurements to the sink. Read failures on one file never stop the others;
// sink failures abort the cycle because dropping measurements silently would
// defeat the point of the agent.
package watcher
