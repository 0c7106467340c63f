package logging

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"bericht/internal/services"
)

// storeHandler converts slog records into store records. It carries its own
// level so the store can be more verbose than the console output.
type storeHandler struct {
	store  *Store
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewStoreHandler returns a handler that appends every enabled record to store.
func NewStoreHandler(store *Store, level slog.Leveler) slog.Handler {
	if store == nil {
		return NoopHandler{}
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &storeHandler{store: store, level: level}
}

func (h *storeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *storeHandler) Handle(ctx context.Context, record slog.Record) error {
	h.store.Append(h.recordFrom(ctx, record))
	return nil
}

func (h *storeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, prefixGroup(h.groups, attr))
	}
	return clone
}

func (h *storeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *storeHandler) clone() *storeHandler {
	return &storeHandler{
		store:  h.store,
		level:  h.level,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *storeHandler) recordFrom(ctx context.Context, record slog.Record) Record {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	rec := Record{
		Level:     RecordLevel(record.Level),
		Timestamp: formatRecordTimestamp(ts),
		Message:   strings.TrimSpace(record.Message),
		Extra:     map[string]any{},
	}

	kvs := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	flattenAttrs(&kvs, nil, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})

	var requestID string
	for _, kv := range kvs {
		switch kv.key {
		case FieldRequestID:
			if value := strings.TrimSpace(attrString(kv.value)); value != "" {
				requestID = value
			}
		case "":
		default:
			rec.Extra[kv.key] = extraValue(kv.value)
		}
	}
	if requestID == "" && ctx != nil {
		requestID, _ = services.RequestIDFromContext(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	rec.RequestID = &requestID

	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		if frame.Function != "" {
			module, function := splitFunctionName(frame.Function)
			rec.Module = &module
			rec.Function = &function
		}
		if frame.Line > 0 {
			line := frame.Line
			rec.LineNumber = &line
		}
	}
	return rec
}

// RecordLevel maps a slog level onto the severity names stored in records.
func RecordLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// splitFunctionName separates "bericht/internal/server.(*Server).handleTitle"
// into its package path and the function part.
func splitFunctionName(name string) (string, string) {
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return name, name
	}
	dot += slash + 1
	return name[:dot], name[dot+1:]
}

func prefixGroup(groups []string, attr slog.Attr) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		attr = slog.Attr{Key: groups[i], Value: slog.GroupValue(attr)}
	}
	return attr
}

func extraValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatRecordTimestamp(v.Time())
	default:
		return attrString(v)
	}
}
