package types

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("https://www.whiskybase.com/whisky/1")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.Method != http.MethodGet {
		t.Errorf("method: got %q", req.Method)
	}
	if req.URLString() != "https://www.whiskybase.com/whisky/1" {
		t.Errorf("url: got %q", req.URLString())
	}
	if req.Host() != "www.whiskybase.com" {
		t.Errorf("host: got %q", req.Host())
	}
}

func TestNewRequestRejectsBadSchemes(t *testing.T) {
	for _, bad := range []string{"ftp://x/file", "file:///etc/passwd", "://nope"} {
		if _, err := NewRequest(bad); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("NewRequest(%q): expected ErrInvalidURL, got %v", bad, err)
		}
	}
}

func TestWithHeadersDoesNotMutateReceiver(t *testing.T) {
	req, err := NewRequest("https://x/whisky/1")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	h := http.Header{}
	h.Set("User-Agent", "agent/1.0")
	clone := req.WithHeaders(h)

	if got := clone.Headers.Get("User-Agent"); got != "agent/1.0" {
		t.Errorf("clone header: got %q", got)
	}
	if got := req.Headers.Get("User-Agent"); got != "" {
		t.Errorf("receiver mutated: got %q", got)
	}

	// And the clone's header set is detached from the caller's map.
	h.Set("User-Agent", "agent/2.0")
	if got := clone.Headers.Get("User-Agent"); got != "agent/1.0" {
		t.Errorf("clone shares caller's map: got %q", got)
	}
}

func TestRecordValuesOrder(t *testing.T) {
	rec := Record{
		Name:      Str("n"),
		StatedAge: Str("12"),
		Barcode:   Str("b"),
	}
	vals := rec.Values()
	if len(vals) != len(RecordFields) {
		t.Fatalf("expected %d values, got %d", len(RecordFields), len(vals))
	}
	if vals[0] == nil || *vals[0] != "n" {
		t.Errorf("Name position: got %v", vals[0])
	}
	if vals[3] == nil || *vals[3] != "12" {
		t.Errorf("Stated Age position: got %v", vals[3])
	}
	if vals[7] == nil || *vals[7] != "b" {
		t.Errorf("Barcode position: got %v", vals[7])
	}
}
