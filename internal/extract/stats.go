package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/spiritdex/spiritdex/internal/fetcher"
	"github.com/spiritdex/spiritdex/internal/types"
)

// XPath queries for the stat-list widget on a bottleraiders spirit page.
// hasClass-style predicates so compound class attributes still match.
const (
	xpathImage    = `//*[contains(concat(' ', normalize-space(@class), ' '), ' o-spirit-image ')]`
	xpathStatList = `//*[contains(concat(' ', normalize-space(@class), ' '), ' o-spirit-stat-list ')]`
	xpathStatKey  = `.//*[contains(concat(' ', normalize-space(@class), ' '), ' o-spirit-stat-key ')]`
	xpathStatVal  = `.//*[contains(concat(' ', normalize-space(@class), ' '), ' o-spirit-stat-value ')]`
)

// StatExtractor fetches a spirit page and reads its stat-list widget. Each
// stat lives in its own <li> holding a key element and a value element, so
// pairs come pre-aligned; an <li> missing either half is skipped.
type StatExtractor struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewStatExtractor creates a StatExtractor.
func NewStatExtractor(f fetcher.Fetcher, logger *slog.Logger) *StatExtractor {
	return &StatExtractor{
		fetcher: f,
		logger:  logger.With("component", "stat_extractor"),
	}
}

// Extract GETs the page and returns the product image URL (empty when
// absent) and the stat table. A page without the widget yields an empty
// table, not an error.
func (e *StatExtractor) Extract(ctx context.Context, rawURL string) (string, types.AttributeTable, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return "", nil, err
	}
	req.Tag = "stat"

	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		return "", nil, err
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return "", nil, &types.ParseError{URL: rawURL, Err: err}
	}

	image := ""
	if node := htmlquery.FindOne(doc, xpathImage); node != nil {
		image = htmlquery.SelectAttr(node, "src")
	}

	table := make(types.AttributeTable)
	list := htmlquery.FindOne(doc, xpathStatList)
	if list == nil {
		e.logger.Debug("stat list absent", "url", rawURL)
		return image, table, nil
	}

	for _, li := range htmlquery.Find(list, ".//li") {
		keyNode := htmlquery.FindOne(li, xpathStatKey)
		valNode := htmlquery.FindOne(li, xpathStatVal)
		if keyNode == nil || valNode == nil {
			e.logger.Warn("incomplete stat entry skipped", "url", rawURL)
			continue
		}
		key := strings.TrimSpace(strings.ReplaceAll(htmlquery.InnerText(keyNode), ":", ""))
		if key == "" {
			continue
		}
		table[key] = strings.TrimSpace(htmlquery.InnerText(valNode))
	}

	return image, table, nil
}
