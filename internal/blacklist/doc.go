// Package blacklist tracks titles known to have no valid MAL target, so they
// are excluded before any network access.
package blacklist
