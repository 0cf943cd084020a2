// Package requestcache stores raw Jikan API responses on disk, keyed by a
// hash of the query value and scoped by request kind (search or detail).
//
// Each entry is a JSON envelope carrying the payload plus an expiry derived
// from the response's own caching headers. For a fixed (kind, key) pair the
// cache holds at most one live entry; a store overwrites.
package requestcache
