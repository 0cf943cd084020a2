// Package resolver maps free-text anime titles to MyAnimeList identifiers.
//
// Resolution order: length gate, blacklist, mapping store, then a cached and
// rate-limited Jikan search whose top-ranked candidates are compared by
// case-insensitive exact title equality. There is no fuzzy matching; a miss
// escalates to interactive arbitration or is reported unmatched.
package resolver
