// Package runlog keeps a SQLite-backed history of conversion runs so
// operators can see how match quality and API usage evolve across sessions.
package runlog
