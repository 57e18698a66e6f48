package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/spiritdex/spiritdex/internal/types"
)

func TestNormalizeFullTable(t *testing.T) {
	attrs := types.AttributeTable{
		"Category":   "Single Malt",
		"Distillery": "Glen Test",
		"Stated Age": "12 years old",
		"Cask Type":  "Bourbon Barrel",
		"Strength":   "46.0 % Vol.",
		"Size":       "700 ml",
		"Barcode":    "5000000000000",
	}

	rec := Normalize("Glen Test 12yo", attrs)

	if rec.Name == nil || *rec.Name != "Glen Test 12yo" {
		t.Errorf("Name: got %v", rec.Name)
	}
	if rec.Category == nil || *rec.Category != "Single Malt" {
		t.Errorf("Category: got %v", rec.Category)
	}
	if rec.Strength == nil || *rec.Strength != "46.0 % Vol." {
		t.Errorf("Strength: got %v", rec.Strength)
	}
	if rec.Barcode == nil || *rec.Barcode != "5000000000000" {
		t.Errorf("Barcode: got %v", rec.Barcode)
	}
}

func TestNormalizeMissingLabelsBecomeNil(t *testing.T) {
	attrs := types.AttributeTable{
		"Category": "Blend",
	}

	rec := Normalize("Some Blend", attrs)

	if rec.Category == nil || *rec.Category != "Blend" {
		t.Errorf("Category: got %v", rec.Category)
	}
	for _, field := range []struct {
		name string
		val  *string
	}{
		{"Distillery", rec.Distillery},
		{"Stated Age", rec.StatedAge},
		{"Cask Type", rec.CaskType},
		{"Strength", rec.Strength},
		{"Size", rec.Size},
		{"Barcode", rec.Barcode},
	} {
		if field.val != nil {
			t.Errorf("%s: expected nil marker, got %q", field.name, *field.val)
		}
	}
}

func TestNormalizeUnknownLabelsIgnored(t *testing.T) {
	attrs := types.AttributeTable{
		"Category": "Bourbon",
		"Vintage":  "1989",
		"Bottler":  "Some House",
	}

	rec := Normalize("Old Bourbon", attrs)

	// Unknown labels must not leak into the serialized record.
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != len(types.RecordFields) {
		t.Fatalf("expected %d keys, got %d: %v", len(types.RecordFields), len(got), got)
	}
	for _, k := range types.RecordFields {
		if _, ok := got[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if _, ok := got["Vintage"]; ok {
		t.Error("unknown label Vintage leaked into output")
	}
}

func TestNormalizeTitlePrecedence(t *testing.T) {
	attrs := types.AttributeTable{"Name": "Page Name"}

	rec := Normalize("Caption Name", attrs)
	if rec.Name == nil || *rec.Name != "Caption Name" {
		t.Errorf("caption must win: got %v", rec.Name)
	}

	rec = Normalize("", attrs)
	if rec.Name == nil || *rec.Name != "Page Name" {
		t.Errorf("empty caption falls back to page label: got %v", rec.Name)
	}

	rec = Normalize("", nil)
	if rec.Name != nil {
		t.Errorf("no caption and no label: expected nil, got %q", *rec.Name)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	attrs := types.AttributeTable{
		"Category": "Rye",
		"Size":     "750 ml",
	}
	a := Normalize("Rye Thing", attrs)
	b := Normalize("Rye Thing", attrs)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different records: %+v vs %+v", a, b)
	}
}

func TestRecordJSONNullMarkers(t *testing.T) {
	rec := Normalize("Lone Name", types.AttributeTable{})

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got["Name"]) != `"Lone Name"` {
		t.Errorf("Name: got %s", got["Name"])
	}
	if string(got["Stated Age"]) != "null" {
		t.Errorf("Stated Age: expected null, got %s", got["Stated Age"])
	}
	if string(got["Cask Type"]) != "null" {
		t.Errorf("Cask Type: expected null, got %s", got["Cask Type"])
	}
}

func TestNormalizeStats(t *testing.T) {
	entry := types.CatalogEntry{
		Title:     "Glen Test &#8211; Reserve",
		Type:      "Scotch",
		Permalink: "https://x/spirit/glen-test-reserve",
	}
	stats := types.AttributeTable{
		"Distiller": "Glen Test",
		"ABV":       "46%",
	}

	rec := NormalizeStats(entry, "https://cdn.x/b.png", stats)

	if rec.Title != "Glen Test – Reserve" {
		t.Errorf("title entities must be unescaped: got %q", rec.Title)
	}
	if rec.Type != "Scotch" {
		t.Errorf("Type: got %q", rec.Type)
	}
	if rec.Distiller == nil || *rec.Distiller != "Glen Test" {
		t.Errorf("Distiller: got %v", rec.Distiller)
	}
	if rec.Bottler != nil {
		t.Errorf("Bottler: expected nil, got %q", *rec.Bottler)
	}
	if rec.Image == nil || *rec.Image != "https://cdn.x/b.png" {
		t.Errorf("Image: got %v", rec.Image)
	}

	rec = NormalizeStats(entry, "", stats)
	if rec.Image != nil {
		t.Errorf("empty image must stay nil, got %q", *rec.Image)
	}
}

func TestNumericStrength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"43.5% Vol.", 43.5, true},
		{"46%", 46, true},
		{"ABV 40", 40, true},
		{".5", 0.5, true},
		{"cask strength", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := NumericStrength(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NumericStrength(%q) = %v,%v; want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
