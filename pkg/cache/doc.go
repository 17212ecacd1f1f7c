// Package cache provides a redis-backed response cache for the remote
// zoning API. Listing pages and geometry cards change rarely, so repeated
// or resumed runs can serve most units from cache instead of re-walking
// the upstream.
//
// Entries are stored as JSON with a TTL chosen by the client
// configuration; redis evicts them on expiry. The cache is optional: a
// client built without redis skips it entirely.
package cache
