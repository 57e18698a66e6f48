// Package normalize maps raw attribute tables onto the fixed output schemas.
// Everything here is pure: no I/O, no side effects, total over its inputs.
package normalize

import (
	"html"
	"regexp"
	"strconv"

	"github.com/spiritdex/spiritdex/internal/types"
)

// Detail-page labels consumed by Normalize.
const (
	LabelName       = "Name"
	LabelCategory   = "Category"
	LabelDistillery = "Distillery"
	LabelStatedAge  = "Stated Age"
	LabelCaskType   = "Cask Type"
	LabelStrength   = "Strength"
	LabelSize       = "Size"
	LabelBarcode    = "Barcode"
)

// Stat-widget keys consumed by NormalizeStats.
const (
	StatDistiller = "Distiller"
	StatBottler   = "Bottler"
	StatAge       = "Age"
	StatABV       = "ABV"
)

var numberRe = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// Normalize builds a Record from a sitemap-supplied title and a detail-page
// attribute table. Every Record has all eight fields; a label absent from
// the table becomes a nil marker, never an error. A non-empty title is
// authoritative for Name and overrides any "Name" label the page supplies;
// an empty title falls back to the page label.
func Normalize(title string, attrs types.AttributeTable) types.Record {
	name := lookup(attrs, LabelName)
	if title != "" {
		name = types.Str(title)
	}
	return types.Record{
		Name:       name,
		Category:   lookup(attrs, LabelCategory),
		Distillery: lookup(attrs, LabelDistillery),
		StatedAge:  lookup(attrs, LabelStatedAge),
		CaskType:   lookup(attrs, LabelCaskType),
		Strength:   lookup(attrs, LabelStrength),
		Size:       lookup(attrs, LabelSize),
		Barcode:    lookup(attrs, LabelBarcode),
	}
}

// NormalizeStats builds a StatRecord from a catalog entry, the page image
// URL (empty = absent) and the stat table. Catalog titles arrive with HTML
// entities and are unescaped here.
func NormalizeStats(entry types.CatalogEntry, image string, stats types.AttributeTable) types.StatRecord {
	rec := types.StatRecord{
		Title:     html.UnescapeString(entry.Title),
		Type:      entry.Type,
		Distiller: lookup(stats, StatDistiller),
		Bottler:   lookup(stats, StatBottler),
		Age:       lookup(stats, StatAge),
		ABV:       lookup(stats, StatABV),
	}
	if image != "" {
		rec.Image = types.Str(image)
	}
	return rec
}

// NumericStrength extracts the first signed decimal from an ABV string,
// e.g. "43.5% Vol." -> 43.5. The second return is false when the string
// holds no number.
func NumericStrength(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func lookup(attrs types.AttributeTable, label string) *string {
	if v, ok := attrs[label]; ok {
		return types.Str(v)
	}
	return nil
}
