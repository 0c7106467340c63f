package logs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"bericht/internal/logging"
)

// zstdSuffix marks rotated log files that were compressed with zstd.
const zstdSuffix = ".zst"

// recordKeys are the JSON handler keys that map onto Record fields rather
// than extra.
var recordKeys = map[string]struct{}{
	"timestamp":            {},
	"level":                {},
	"event":                {},
	"source":               {},
	logging.FieldRequestID: {},
}

// ReadFile returns records decoded from the last maxLines lines of a JSON
// log file, oldest first. Files ending in .zst are decompressed on the fly.
// Lines that are not JSON objects are skipped. A missing file yields no
// records.
func ReadFile(path string, maxLines int) ([]logging.Record, error) {
	if maxLines <= 0 {
		maxLines = logging.DefaultStoreCapacity
	}
	lines, err := readLastLines(path, maxLines)
	if err != nil {
		return nil, err
	}
	records := make([]logging.Record, 0, len(lines))
	for _, line := range lines {
		if rec, ok := decodeLine(line); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func readLastLines(path string, limit int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %q is a directory", path)
	}

	var reader io.Reader = file
	if strings.HasSuffix(path, zstdSuffix) {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("open compressed log file: %w", err)
		}
		defer dec.Close()
		reader = dec
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

func decodeLine(line string) (logging.Record, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return logging.Record{}, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return logging.Record{}, false
	}
	rec := logging.Record{
		Level:     strings.ToUpper(stringField(fields, "level")),
		Timestamp: stringField(fields, "timestamp"),
		Message:   stringField(fields, "event"),
		Extra:     map[string]any{},
	}
	if id := stringField(fields, logging.FieldRequestID); id != "" {
		rec.RequestID = &id
	}
	if source := stringField(fields, "source"); source != "" {
		if file, lineNo, ok := strings.Cut(source, ":"); ok {
			module := strings.TrimSuffix(file, ".go")
			rec.Module = &module
			if n, err := strconv.Atoi(lineNo); err == nil {
				rec.LineNumber = &n
			}
		}
	}
	for key, value := range fields {
		if _, reserved := recordKeys[key]; reserved {
			continue
		}
		rec.Extra[key] = value
	}
	return rec, true
}

func stringField(fields map[string]any, key string) string {
	value, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return value
}
