// Command anitransfer converts anime-planet.com JSON exports into
// myanimelist.net XML import files, resolving titles through the Jikan API
// with persistent caching and interactive review.
package main
