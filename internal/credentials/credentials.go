package credentials

import "encoding/json"

// Config is the resolved connection configuration for one integration:
// everything a vendor API client needs before making a network call.
type Config struct {
	APIURL string `json:"apiUrl"`
	Token  string `json:"token,omitempty"`
	// Extra carries named sub-credentials (secondary keys, per-unit tokens)
	// whose shape varies by vendor.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// cache key = fixed prefix + integration id; the prefix namespaces credential
// entries away from unrelated cache keys.
const cacheKeyPrefix = "creds:integration:"

// CacheKey derives the cache key for an integration's credential entry.
func CacheKey(integrationID string) string {
	return cacheKeyPrefix + integrationID
}
