// Package stats holds the process-lifetime counters reported at end of run.
package stats
