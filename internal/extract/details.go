// Package extract pulls semi-structured attribute tables out of product
// detail pages. HTML parsing here is tolerant by design: real-world pages
// are not well-formed, and a malformed page yields whatever pairs it can,
// never a parse failure.
package extract

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spiritdex/spiritdex/internal/fetcher"
	"github.com/spiritdex/spiritdex/internal/types"
)

// DefaultDetailSelector locates the spec-sheet definition list on a
// whiskybase detail page.
const DefaultDetailSelector = "#whisky-details dl"

// DetailExtractor fetches a detail page and reads its definition-list region
// into an AttributeTable.
type DetailExtractor struct {
	fetcher  fetcher.Fetcher
	selector string
	logger   *slog.Logger
}

// NewDetailExtractor creates a DetailExtractor using DefaultDetailSelector.
func NewDetailExtractor(f fetcher.Fetcher, logger *slog.Logger) *DetailExtractor {
	return &DetailExtractor{
		fetcher:  f,
		selector: DefaultDetailSelector,
		logger:   logger.With("component", "detail_extractor"),
	}
}

// NewDetailExtractorWithSelector creates a DetailExtractor for a custom
// spec-sheet container.
func NewDetailExtractorWithSelector(f fetcher.Fetcher, selector string, logger *slog.Logger) *DetailExtractor {
	e := NewDetailExtractor(f, logger)
	e.selector = selector
	return e
}

// Extract GETs the page with the caller-supplied headers and returns its
// label→value table. Labels and values are paired during a single ordered
// traversal of the region: a <dt> opens a pending label, the next <dd>
// closes it. A label without a value or a value without a label is logged
// and dropped, so a count mismatch truncates the table to complete pairs
// instead of silently misaligning it. An absent region yields an empty
// table, not an error.
func (e *DetailExtractor) Extract(ctx context.Context, rawURL string, headers http.Header) (types.AttributeTable, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req = req.WithHeaders(headers)
	req.Tag = "detail"

	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	doc, err := resp.Document()
	if err != nil {
		// goquery only fails on reader errors, not on bad markup.
		return nil, &types.ParseError{URL: rawURL, Err: err}
	}

	return e.pairRegion(rawURL, doc), nil
}

// pairRegion walks every matching definition list in document order and
// collects its term/description pairs.
func (e *DetailExtractor) pairRegion(rawURL string, doc *goquery.Document) types.AttributeTable {
	table := make(types.AttributeTable)

	region := doc.Find(e.selector)
	if region.Length() == 0 {
		e.logger.Debug("detail region absent", "url", rawURL, "selector", e.selector)
		return table
	}

	var pending string
	var havePending bool

	region.Children().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "dt":
			if havePending {
				e.logger.Warn("label without value dropped", "url", rawURL, "label", pending)
			}
			pending = strings.TrimSpace(s.Text())
			havePending = true
		case "dd":
			if !havePending {
				e.logger.Warn("value without label dropped", "url", rawURL)
				return
			}
			table[pending] = strings.TrimSpace(s.Text())
			havePending = false
		}
	})

	if havePending {
		e.logger.Warn("label without value dropped", "url", rawURL, "label", pending)
	}

	return table
}
