// Package catalog defines the zoning catalog records produced by the
// discovery stage and their JSON file representation.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Column order of the upstream listing table. The upstream serves Russian
// headers; records carry the translated field names.
const (
	colNumber = iota
	colMunicipality
	colZoneName
	colZoneCode
	colZoneDescription
	colAdditionalInfo

	columnCount
)

// Record is one row of the zoning catalog, translated from the upstream
// column layout. CardID references the geometry card for the zone; rows
// without a card carry no geometry.
type Record struct {
	Number          string `json:"number"`
	Municipality    string `json:"municipality"`
	ZoneName        string `json:"zone_name"`
	ZoneCode        string `json:"zone_code"`
	ZoneDescription string `json:"zone_description"`
	AdditionalInfo  string `json:"additional_info"`

	// OriginalColumns preserves the upstream row verbatim.
	OriginalColumns []string `json:"original_columns"`

	CardID string `json:"card_id"`
}

// HasGeometry reports whether the record references a geometry card.
func (r Record) HasGeometry() bool {
	return strings.TrimSpace(r.CardID) != ""
}

// cardID decodes the upstream card reference, which is served as either a
// JSON string or a JSON number depending on the row.
type cardID string

func (c *cardID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = cardID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card id is neither string nor number: %w", err)
	}
	*c = cardID(n.String())
	return nil
}

// listRow is the wire shape of one row on a listing page.
type listRow struct {
	Columns []string `json:"columns"`
	Meta    struct {
		Card cardID `json:"card"`
	} `json:"meta"`
}

// ParsePage parses the JSON array served by one listing page into records.
// A page with zero rows parses to an empty slice, not an error.
func ParsePage(data []byte) ([]Record, error) {
	var rows []listRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if len(row.Columns) < columnCount {
			return nil, fmt.Errorf("parse listing page: row %d has %d columns, want %d",
				i, len(row.Columns), columnCount)
		}
		records = append(records, Record{
			Number:          row.Columns[colNumber],
			Municipality:    row.Columns[colMunicipality],
			ZoneName:        row.Columns[colZoneName],
			ZoneCode:        row.Columns[colZoneCode],
			ZoneDescription: row.Columns[colZoneDescription],
			AdditionalInfo:  row.Columns[colAdditionalInfo],
			OriginalColumns: row.Columns,
			CardID:          string(row.Meta.Card),
		})
	}
	return records, nil
}

// CardIDs returns the distinct non-empty card identifiers of records, in
// first-seen order.
func CardIDs(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if !r.HasGeometry() {
			continue
		}
		if _, ok := seen[r.CardID]; ok {
			continue
		}
		seen[r.CardID] = struct{}{}
		ids = append(ids, r.CardID)
	}
	return ids
}
