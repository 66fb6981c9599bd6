// Command benchtail is the CLI entry point for the measurement harvesting
// agent: it runs the watch loop and offers inspection commands over the
// samples database and configuration.
package main
