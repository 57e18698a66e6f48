package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spiritdex/spiritdex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleRecords() []types.Record {
	return []types.Record{
		{
			Name:       types.Str("Dram One"),
			Category:   types.Str("Single Malt"),
			Distillery: types.Str("Glen Test"),
			Strength:   types.Str("46.0 % Vol."),
		},
		{
			Name: types.Str("Dram Two"),
			Size: types.Str("700 ml"),
		},
	}
}

func TestJSONStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "whiskies.json")
	s, err := NewJSONStorage(path, testLogger)
	if err != nil {
		t.Fatalf("NewJSONStorage: %v", err)
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Four-space indentation and explicit nulls for missing fields.
	if !strings.Contains(string(data), "\n    {") {
		t.Error("output not indented with four spaces")
	}
	if !strings.Contains(string(data), `"Barcode": null`) {
		t.Error("missing field must serialize as null")
	}

	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for i, rec := range got {
		if len(rec) != len(types.RecordFields) {
			t.Errorf("record %d: expected %d keys, got %d", i, len(types.RecordFields), len(rec))
		}
	}
	if got[0]["Name"] != "Dram One" {
		t.Errorf("record 0 name: got %v", got[0]["Name"])
	}
	if got[1]["Category"] != nil {
		t.Errorf("record 1 category: expected null, got %v", got[1]["Category"])
	}
}

func TestJSONLStorageStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whiskies.jsonl")
	s, err := NewJSONLStorage(path, testLogger)
	if err != nil {
		t.Fatalf("NewJSONLStorage: %v", err)
	}
	if err := s.Store(sampleRecords()[:1]); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Lines land before Close: the file is a usable partial checkpoint.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line before Close, got %d", len(lines))
	}

	if err := s.Store(sampleRecords()[1:]); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var rec types.Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if rec.Name == nil || *rec.Name != "Dram One" {
		t.Errorf("line 0 name: got %v", rec.Name)
	}
}

func TestCSVStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whiskies.csv")
	s, err := NewCSVStorage(path, testLogger)
	if err != nil {
		t.Fatalf("NewCSVStorage: %v", err)
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], types.RecordFields) {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][0] != "Dram One" || rows[1][2] != "Glen Test" {
		t.Errorf("row 1: got %v", rows[1])
	}
	// Missing fields become empty cells.
	if rows[2][1] != "" {
		t.Errorf("row 2 category: expected empty cell, got %q", rows[2][1])
	}
	if rows[2][6] != "700 ml" {
		t.Errorf("row 2 size: got %q", rows[2][6])
	}
}

func TestMultiStorageFansOut(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out.json")
	csvPath := filepath.Join(dir, "out.csv")

	js, err := NewJSONStorage(jsonPath, testLogger)
	if err != nil {
		t.Fatalf("NewJSONStorage: %v", err)
	}
	cs, err := NewCSVStorage(csvPath, testLogger)
	if err != nil {
		t.Fatalf("NewCSVStorage: %v", err)
	}

	multi := NewMultiStorage([]Storage{js, cs}, testLogger)
	if err := multi.Store(sampleRecords()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := multi.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var recs []types.Record
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("json backend: expected 2 records, got %d", len(recs))
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("csv backend: expected header + 2 rows, got %d", len(rows))
	}
}

func TestWriteStatsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats", "whiskey.json")
	records := []types.StatRecord{
		{
			Title:     "First",
			Type:      "Bourbon",
			Distiller: types.Str("House A"),
			ABV:       types.Str("45%"),
		},
		{Title: "Second", Type: "Scotch"},
	}
	if err := WriteStatsJSON(path, records); err != nil {
		t.Fatalf("WriteStatsJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\n    {") {
		t.Error("output not indented with four spaces")
	}

	var got []types.StatRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Distiller == nil || *got[0].Distiller != "House A" {
		t.Errorf("distiller: got %v", got[0].Distiller)
	}
	// Image omitted when absent.
	if strings.Contains(string(data), `"Image"`) {
		t.Error("absent image must be omitted from output")
	}
}
