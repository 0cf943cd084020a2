// Package arbiter collects operator decisions for titles the automatic
// matcher left unresolved. The console implementation drives a two-step
// review (best suggestion, then the full shortlist); Noop keeps everything
// unmatched for non-interactive runs.
package arbiter
