package extract

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/spiritdex/spiritdex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const detailPage = `<html><body>
<div id="whisky-details">
  <dl>
    <dt> Category </dt><dd> Single Malt </dd>
    <dt>Distillery</dt><dd>Glen Test</dd>
    <dt>Strength</dt><dd>46.0 % Vol.</dd>
    <dt>Size</dt><dd>700 ml</dd>
  </dl>
</div>
</body></html>`

const mismatchedPage = `<html><body>
<div id="whisky-details">
  <dl>
    <dt>Category</dt><dd>Blend</dd>
    <dt>Distillery</dt><dd>Glen Test</dd>
    <dt>Strength</dt>
  </dl>
</div>
</body></html>`

const pageWithoutRegion = `<html><body><p>nothing to see</p></body></html>`

// stubFetcher returns a canned HTML body and records the last request.
type stubFetcher struct {
	body    string
	err     error
	lastReq *types.Request
}

func (f *stubFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &types.Response{StatusCode: 200, Body: []byte(f.body), Request: req}, nil
}

func (f *stubFetcher) Close() error { return nil }

func (f *stubFetcher) Type() string { return "stub" }

func TestExtractPairsLabelsAndValues(t *testing.T) {
	e := NewDetailExtractor(&stubFetcher{body: detailPage}, testLogger)

	table, err := e.Extract(context.Background(), "https://x/whiskies-1", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := map[string]string{
		"Category":   "Single Malt",
		"Distillery": "Glen Test",
		"Strength":   "46.0 % Vol.",
		"Size":       "700 ml",
	}
	if len(table) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(table), table)
	}
	for k, v := range want {
		if table[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, table[k])
		}
	}
}

func TestExtractTruncatesToCompletePairs(t *testing.T) {
	e := NewDetailExtractor(&stubFetcher{body: mismatchedPage}, testLogger)

	table, err := e.Extract(context.Background(), "https://x/whiskies-2", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(table) != 2 {
		t.Fatalf("expected 2 complete pairs, got %d: %v", len(table), table)
	}
	if table["Category"] != "Blend" || table["Distillery"] != "Glen Test" {
		t.Errorf("unexpected table: %v", table)
	}
	if _, ok := table["Strength"]; ok {
		t.Error("dangling label must not appear in the table")
	}
}

func TestExtractAbsentRegionYieldsEmptyTable(t *testing.T) {
	e := NewDetailExtractor(&stubFetcher{body: pageWithoutRegion}, testLogger)

	table, err := e.Extract(context.Background(), "https://x/whiskies-3", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %v", table)
	}
}

func TestExtractPassesHeadersThrough(t *testing.T) {
	stub := &stubFetcher{body: detailPage}
	e := NewDetailExtractor(stub, testLogger)

	headers := http.Header{}
	headers.Set("Host", "www.whiskybase.com")
	headers.Set("User-Agent", "test-agent/1.0")

	if _, err := e.Extract(context.Background(), "https://x/whiskies-4", headers); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if stub.lastReq == nil {
		t.Fatal("fetcher was never called")
	}
	if got := stub.lastReq.Headers.Get("User-Agent"); got != "test-agent/1.0" {
		t.Errorf("User-Agent: got %q", got)
	}
	if got := stub.lastReq.Headers.Get("Host"); got != "www.whiskybase.com" {
		t.Errorf("Host: got %q", got)
	}
}

func TestExtractFetchErrorPropagates(t *testing.T) {
	fetchErr := &types.FetchError{URL: "https://x/whiskies-5", StatusCode: 503, Err: errors.New("unavailable")}
	e := NewDetailExtractor(&stubFetcher{err: fetchErr}, testLogger)

	_, err := e.Extract(context.Background(), "https://x/whiskies-5", nil)
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != 503 {
		t.Errorf("status: got %d", fe.StatusCode)
	}
}

func TestExtractCustomSelector(t *testing.T) {
	const page = `<html><body><dl class="facts"><dt>Age</dt><dd>12</dd></dl></body></html>`
	e := NewDetailExtractorWithSelector(&stubFetcher{body: page}, "dl.facts", testLogger)

	table, err := e.Extract(context.Background(), "https://x/whiskies-6", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if table["Age"] != "12" {
		t.Errorf("expected Age=12, got %v", table)
	}
}
