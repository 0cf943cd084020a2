// Package pacer provides the process-wide request gate that keeps outbound
// Jikan API calls within the service's rate limit.
package pacer
