// Package planet reads anime-planet.com JSON exports into typed entries.
package planet
