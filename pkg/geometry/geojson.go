package geometry

import (
	"encoding/json"
	"fmt"
	"os"
)

// Feature is one GeoJSON feature.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// FeatureProps carries the catalog fields attached to each exported
// feature.
type FeatureProps struct {
	ZoneCode     string
	Municipality string
}

// Collection builds a FeatureCollection from the geometries in rs, sorted
// by identifier. Absent and failed identifiers carry no geometry and are
// not exported; they remain in the primary result set.
func Collection(rs ResultSet, props map[string]FeatureProps) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection"}
	for _, id := range rs.Geometries() {
		p := props[id]
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Properties: map[string]any{
				"geometry_id":  id,
				"zone_code":    p.ZoneCode,
				"municipality": p.Municipality,
			},
			Geometry: rs[id].Geometry,
		})
	}
	return fc
}

// LoadCollection reads a GeoJSON file and verifies it is a
// FeatureCollection.
func LoadCollection(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson %s: %w", path, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%s: not a FeatureCollection (type %q)", path, fc.Type)
	}
	return &fc, nil
}

// SaveCollection writes a FeatureCollection as indented JSON.
func (fc *FeatureCollection) SaveCollection(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create geojson %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("write geojson %s: %w", path, err)
	}
	return nil
}
