// Package batch drives a whole watch list through title resolution. It
// retries transiently failed lookups for a bounded number of passes,
// escalates undecided titles to the arbiter, and persists every confirmed
// match through one funnel.
package batch
