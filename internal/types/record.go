package types

// Record is the normalized output shape for one bottle. Every Record carries
// exactly these eight fields; a nil pointer is the explicit missing-value
// marker (serialized as JSON null) and distinguishes "absent on the source
// page" from "present but empty".
type Record struct {
	Name       *string `json:"Name"`
	Category   *string `json:"Category"`
	Distillery *string `json:"Distillery"`
	StatedAge  *string `json:"Stated Age"`
	CaskType   *string `json:"Cask Type"`
	Strength   *string `json:"Strength"`
	Size       *string `json:"Size"`
	Barcode    *string `json:"Barcode"`
}

// RecordFields lists the eight output field names in serialization order.
// CSV export and the relational schema derive their column order from it.
var RecordFields = []string{
	"Name", "Category", "Distillery", "Stated Age",
	"Cask Type", "Strength", "Size", "Barcode",
}

// Str returns a pointer to s, for building Records in literals and tests.
func Str(s string) *string { return &s }

// Values returns the field values in RecordFields order.
func (r Record) Values() []*string {
	return []*string{
		r.Name, r.Category, r.Distillery, r.StatedAge,
		r.CaskType, r.Strength, r.Size, r.Barcode,
	}
}

// AttributeTable maps a field label exactly as it appears on a detail page
// (e.g. "Category", "Distillery") to its whitespace-trimmed text value. Keys
// are not schema-constrained; labels vary per page.
type AttributeTable map[string]string

// LocatedItem is one entry of an item-listing sitemap. Title and ImageURL
// come from the Google image-sitemap extension and are empty when the entry
// carries no image metadata. Immutable once created.
type LocatedItem struct {
	Title     string
	DetailURL string
	ImageURL  string
}
