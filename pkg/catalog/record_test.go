package catalog

import (
	"path/filepath"
	"reflect"
	"testing"
)

const samplePage = `[
  {
    "columns": ["1", "г.о. Балашиха", "Жилая зона", "Ж-1", "Зона застройки", "—"],
    "meta": {"card": "46630101"}
  },
  {
    "columns": ["2", "г.о. Химки", "Производственная зона", "П", "Зона производственных объектов", ""],
    "meta": {}
  },
  {
    "columns": ["3", "г.о. Подольск", "Рекреационная зона", "Р-2", "Зона отдыха", ""],
    "meta": {"card": 50120077}
  }
]`

func TestParsePage(t *testing.T) {
	records, err := ParsePage([]byte(samplePage))
	if err != nil {
		t.Fatalf("ParsePage() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("parsed %d records, want 3", len(records))
	}

	first := records[0]
	if first.Municipality != "г.о. Балашиха" {
		t.Errorf("Municipality = %q", first.Municipality)
	}
	if first.ZoneCode != "Ж-1" {
		t.Errorf("ZoneCode = %q", first.ZoneCode)
	}
	if first.CardID != "46630101" {
		t.Errorf("CardID = %q, want 46630101", first.CardID)
	}
	if !first.HasGeometry() {
		t.Error("first record should have geometry")
	}
	if len(first.OriginalColumns) != 6 {
		t.Errorf("OriginalColumns has %d entries, want 6", len(first.OriginalColumns))
	}

	if records[1].HasGeometry() {
		t.Error("record without card should not have geometry")
	}

	// Numeric card ids decode to their string form.
	if records[2].CardID != "50120077" {
		t.Errorf("numeric CardID = %q, want 50120077", records[2].CardID)
	}
}

func TestParsePage_EmptyPage(t *testing.T) {
	records, err := ParsePage([]byte(`[]`))
	if err != nil {
		t.Fatalf("ParsePage() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("parsed %d records, want 0", len(records))
	}
}

func TestParsePage_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>backend error</html>`},
		{"wrong shape", `{"rows": []}`},
		{"short row", `[{"columns": ["1", "x"], "meta": {}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePage([]byte(tt.body)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestCardIDs(t *testing.T) {
	records := []Record{
		{CardID: "100"},
		{CardID: ""},
		{CardID: "200"},
		{CardID: "100"},
		{CardID: "  "},
	}

	got := CardIDs(records)
	want := []string{"100", "200"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CardIDs() = %v, want %v", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	records, err := ParsePage([]byte(samplePage))
	if err != nil {
		t.Fatalf("ParsePage() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "zones.json")
	if err := Save(path, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, records) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, records)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
