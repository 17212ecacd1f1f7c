package geometry

import (
	"encoding/json"
	"fmt"
)

// Flatten hoists features whose geometry is itself a FeatureCollection up
// into the top-level collection. Parent properties are merged into each
// nested feature; the nested feature's own properties win on conflict.
// Regular features pass through unchanged.
func Flatten(fc *FeatureCollection) *FeatureCollection {
	out := &FeatureCollection{Type: "FeatureCollection"}

	for _, feature := range fc.Features {
		var nested FeatureCollection
		if err := json.Unmarshal(feature.Geometry, &nested); err != nil || nested.Type != "FeatureCollection" {
			out.Features = append(out.Features, feature)
			continue
		}

		for _, inner := range nested.Features {
			props := make(map[string]any, len(feature.Properties)+len(inner.Properties))
			for k, v := range feature.Properties {
				props[k] = v
			}
			for k, v := range inner.Properties {
				props[k] = v
			}

			typ := inner.Type
			if typ == "" {
				typ = "Feature"
			}
			out.Features = append(out.Features, Feature{
				Type:       typ,
				Properties: props,
				Geometry:   inner.Geometry,
			})
		}
	}
	return out
}

// FlattenFile flattens the FeatureCollection at in and writes it to out.
// It returns the feature counts before and after flattening.
func FlattenFile(in, out string) (before, after int, err error) {
	fc, err := LoadCollection(in)
	if err != nil {
		return 0, 0, err
	}

	flat := Flatten(fc)
	if err := flat.SaveCollection(out); err != nil {
		return 0, 0, fmt.Errorf("save flattened geojson: %w", err)
	}
	return len(fc.Features), len(flat.Features), nil
}
