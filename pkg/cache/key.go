package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies one cached upstream response.
type Key struct {
	// Endpoint is the upstream path (e.g. "/geoportal/docs/list").
	Endpoint string

	// Params are the query parameters of the request.
	Params url.Values
}

// String generates a deterministic redis key.
// Format: zonecrawl:endpoint:param1=val1:param2=val2
//
// Example:
//
//	zonecrawl:geoportal/docs/list:id=50:page=3:show=100
func (k Key) String() string {
	parts := []string{"zonecrawl"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Sorted for determinism.
	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
