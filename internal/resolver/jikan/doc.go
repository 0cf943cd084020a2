// Package jikan implements the client for the Jikan v4 API, the unofficial
// REST interface to myanimelist.net used to resolve anime titles to MAL IDs.
package jikan
