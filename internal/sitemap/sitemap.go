// Package sitemap resolves sitemap-index documents and expands item-listing
// sitemaps into located items. Sitemap documents are parsed strictly: unlike
// detail pages, a malformed sitemap is a ParseError, not something to limp
// through.
package sitemap

import (
	"context"
	"encoding/xml"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spiritdex/spiritdex/internal/fetcher"
	"github.com/spiritdex/spiritdex/internal/types"
)

// XML namespaces consumed.
const (
	nsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	nsImage   = "http://www.google.com/schemas/sitemap-image/1.1"
)

// indexDoc is a sitemap-index: a list of pointers to other sitemaps.
type indexDoc struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// urlSet is a leaf sitemap whose entries each describe one crawlable item,
// optionally annotated with Google image-extension metadata.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc   string      `xml:"loc"`
	Image *imageEntry `xml:"http://www.google.com/schemas/sitemap-image/1.1 image"`
}

type imageEntry struct {
	Loc     string `xml:"loc"`
	Caption string `xml:"caption"`
}

// Client fetches and traverses sitemap documents.
type Client struct {
	fetcher fetcher.Fetcher
	pattern *regexp.Regexp
	logger  *slog.Logger
}

// New creates a sitemap Client. pattern selects item-listing child sitemaps
// by location (case-sensitive regexp, e.g. "whiskies-[0-9]+").
func New(f fetcher.Fetcher, pattern string, logger *slog.Logger) (*Client, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Client{
		fetcher: f,
		pattern: re,
		logger:  logger.With("component", "sitemap"),
	}, nil
}

// ResolveIndex fetches a sitemap-index document and returns the child sitemap
// locations matching the item-listing pattern, in document order. Zero
// matches is a valid, empty result.
func (c *Client) ResolveIndex(ctx context.Context, rawURL string) ([]string, error) {
	body, err := c.fetchXML(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var idx indexDoc
	if err := xml.Unmarshal(body, &idx); err != nil {
		return nil, &types.ParseError{URL: rawURL, Err: err}
	}

	var locs []string
	for _, sm := range idx.Sitemaps {
		loc := strings.TrimSpace(sm.Loc)
		if loc == "" {
			continue
		}
		if c.pattern.MatchString(loc) {
			locs = append(locs, loc)
		}
	}

	c.logger.Debug("sitemap index resolved",
		"url", rawURL,
		"children", len(idx.Sitemaps),
		"matched", len(locs),
	)
	return locs, nil
}

// LocateItems fetches one item-listing sitemap and returns a LocatedItem per
// entry that carries a location, preserving document order. Entries without
// a location are skipped, not fatal; image location and caption default to
// empty when the image extension is absent.
func (c *Client) LocateItems(ctx context.Context, rawURL string) ([]types.LocatedItem, error) {
	body, err := c.fetchXML(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, &types.ParseError{URL: rawURL, Err: err}
	}

	items := make([]types.LocatedItem, 0, len(set.URLs))
	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			c.logger.Warn("sitemap entry without location skipped", "sitemap", rawURL)
			continue
		}
		item := types.LocatedItem{DetailURL: loc}
		if entry.Image != nil {
			item.ImageURL = strings.TrimSpace(entry.Image.Loc)
			item.Title = strings.TrimSpace(entry.Image.Caption)
		}
		items = append(items, item)
	}

	c.logger.Debug("items located",
		"sitemap", rawURL,
		"entries", len(set.URLs),
		"items", len(items),
	)
	return items, nil
}

// fetchXML retrieves a sitemap document body.
func (c *Client) fetchXML(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.Tag = "sitemap"

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, &types.ParseError{URL: rawURL, Err: types.ErrEmptyResponse}
	}
	return resp.Body, nil
}
