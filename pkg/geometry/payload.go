// Package geometry defines the polygon payloads fetched for catalog
// records, the keyed result set of the geometry stage, and its GeoJSON
// export.
package geometry

import (
	"encoding/json"
	"fmt"
)

// Payload is the geometry fetched for one card identifier. A nil Geometry
// means the upstream card exists but carries no geometry.
type Payload struct {
	ID       string
	Geometry json.RawMessage
}

// Absent reports whether the upstream response carried no geometry.
func (p *Payload) Absent() bool {
	return p == nil || len(p.Geometry) == 0 || string(p.Geometry) == "null"
}

// ParseResponse parses a geometry endpoint response body. A valid JSON
// object without a geometry member parses to an absent payload.
func ParseResponse(id string, data []byte) (*Payload, error) {
	var body struct {
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parse geometry response for %s: %w", id, err)
	}
	return &Payload{ID: id, Geometry: body.Geometry}, nil
}
