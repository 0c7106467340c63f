package logs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"bericht/internal/logging"
	"bericht/internal/logs"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bericht.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	return path
}

func TestReadFileDecodesJSONLines(t *testing.T) {
	path := writeLines(t,
		`{"timestamp":"2025-02-01T08:00:00.000000+00:00","level":"info","event":"started","component":"serverrun","request_id":"r1"}`,
		`plain text line`,
		`{"timestamp":"2025-02-01T08:00:01.000000+00:00","level":"error","event":"boom","source":"handlers.go:42","status":502}`,
	)
	records, err := logs.ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Level != "INFO" || first.Message != "started" || first.RequestID == nil || *first.RequestID != "r1" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.Extra["component"] != "serverrun" {
		t.Fatalf("expected component in extra, got %+v", first.Extra)
	}
	second := records[1]
	if second.Module == nil || *second.Module != "handlers" || second.LineNumber == nil || *second.LineNumber != 42 {
		t.Fatalf("expected source to populate module and line, got %+v", second)
	}
	if second.Extra["status"] != float64(502) {
		t.Fatalf("expected numeric extra, got %+v", second.Extra)
	}
}

func TestReadFileKeepsLastLines(t *testing.T) {
	path := writeLines(t,
		`{"timestamp":"2025-02-01T08:00:00Z","level":"info","event":"one"}`,
		`{"timestamp":"2025-02-01T08:00:01Z","level":"info","event":"two"}`,
		`{"timestamp":"2025-02-01T08:00:02Z","level":"info","event":"three"}`,
	)
	records, err := logs.ReadFile(path, 2)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(records) != 2 || records[0].Message != "two" || records[1].Message != "three" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestReadFileFeedsStoreQuery(t *testing.T) {
	path := writeLines(t,
		`{"timestamp":"2025-02-01T08:00:00Z","level":"warning","event":"slow"}`,
		`{"timestamp":"2025-02-01T09:00:00Z","level":"info","event":"ok"}`,
	)
	records, err := logs.ReadFile(path, 10)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	store := logging.NewStore(10)
	for _, rec := range records {
		store.Append(rec)
	}
	got := store.Query(logging.Query{Level: "Warning", Limit: 10})
	if len(got) != 1 || got[0].Message != "slow" {
		t.Fatalf("unexpected query result %+v", got)
	}
}

func TestReadFileMissing(t *testing.T) {
	records, err := logs.ReadFile(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty result, got %v %v", records, err)
	}
	if _, err := logs.ReadFile(t.TempDir(), 10); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestReadFileDecompressesZstd(t *testing.T) {
	lines := []string{
		`{"timestamp":"2025-02-01T08:00:00.000000+00:00","level":"info","event":"archived one"}`,
		`{"timestamp":"2025-02-01T08:00:01.000000+00:00","level":"warning","event":"archived two"}`,
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	compressed := enc.EncodeAll([]byte(strings.Join(lines, "\n")+"\n"), nil)
	enc.Close()

	path := filepath.Join(t.TempDir(), "bericht.log.1.zst")
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	records, err := logs.ReadFile(path, 10)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(records) != 2 || records[1].Message != "archived two" || records[1].Level != "WARNING" {
		t.Fatalf("unexpected records %+v", records)
	}
}
