// Package malxml renders resolved watch lists as myanimelist.net XML import
// files, converting anime-planet.com statuses, ratings and watch counts to
// their MAL equivalents.
package malxml
