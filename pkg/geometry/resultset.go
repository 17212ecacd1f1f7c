package geometry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Entry is the terminal record for one card identifier. Exactly one of
// Geometry, Absent, or Error is set.
type Entry struct {
	Geometry json.RawMessage `json:"geometry,omitempty"`
	Absent   bool            `json:"absent,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ResultSet maps every card identifier handed to the geometry stage to its
// terminal entry. Identifiers that failed permanently keep an Error entry
// so downstream consumers can detect and re-run the gaps.
type ResultSet map[string]Entry

// Geometries returns the identifiers that resolved to actual geometry,
// sorted for deterministic output.
func (rs ResultSet) Geometries() []string {
	ids := make([]string, 0, len(rs))
	for id, e := range rs {
		if len(e.Geometry) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Failed returns the identifiers recorded with an error, sorted.
func (rs ResultSet) Failed() []string {
	var ids []string
	for id, e := range rs {
		if e.Error != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Save writes the result set as an indented JSON object keyed by
// identifier.
func (rs ResultSet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rs); err != nil {
		return fmt.Errorf("write result file %s: %w", path, err)
	}
	return nil
}
