package types

// Catalog is the input document for the catalog/stat flow: a locally stored
// listing of spirits with permalinks to their stat pages.
type Catalog struct {
	Size    int            `json:"size"`
	Whiskey []CatalogEntry `json:"whiskey"`
}

// CatalogEntry is one spirit in the catalog. Title may contain HTML entities.
type CatalogEntry struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	Permalink string `json:"permalink"`
}

// StatRecord is the normalized output of the catalog/stat flow. As with
// Record, nil marks a stat that was absent from the page.
type StatRecord struct {
	Title     string  `json:"Title"`
	Type      string  `json:"Type"`
	Distiller *string `json:"Distiller"`
	Bottler   *string `json:"Bottler"`
	Age       *string `json:"Age"`
	ABV       *string `json:"ABV"`
	Image     *string `json:"Image,omitempty"`
}
