// Package cmap provides a string-keyed concurrent map split into
// independently locked shards.
//
// Keys are routed to shards with murmur3, so hot keys from different
// clients rarely contend on the same lock. It backs per-client state such
// as rate limiters in the HTTP server.
//
//	m := cmap.New[*rate.Limiter]()
//	lim := m.GetOrCompute(clientIP, newLimiter)
package cmap
