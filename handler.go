package sanelog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// kindLog is the default record kind, carried in the "type" field. Plain log
// records additionally get function and file fields; other kinds (ginlog's
// access records, caller-tagged events) do not.
const kindLog = "log"

// reservedKeys are the required record fields. Caller attributes with these
// keys are dropped at merge time so they can never shadow the real values.
var reservedKeys = map[string]struct{}{
	"timestamp": {},
	"level":     {},
	"logger":    {},
	"message":   {},
}

// jsonHandler is the container-mode slog.Handler. Each record becomes one
// flat JSON object on its own line, sanitized for the downstream collector
// and written with a single Write call so concurrent callers never interleave
// bytes within a line.
type jsonHandler struct {
	mu    *sync.Mutex // shared across clones, guards w
	w     io.Writer
	level slog.Leveler
	name  string
	attrs []slog.Attr // from WithAttrs, group prefixes already applied
	group string      // open WithGroup prefix for subsequent attrs
}

func newJSONHandler(w io.Writer, level slog.Leveler) *jsonHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &jsonHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *jsonHandler) clone() *jsonHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

// named returns a copy bound to a logger channel name. The name travels in
// the handler rather than as an attribute, so the merge rules cannot be used
// to spoof it.
func (h *jsonHandler) named(name string) *jsonHandler {
	c := h.clone()
	c.name = name
	return c
}

func (h *jsonHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		c.attrs = appendFlat(c.attrs, h.group, a)
	}
	return c
}

func (h *jsonHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	return c
}

func (h *jsonHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendFlat(attrs, h.group, a)
		return true
	})

	kind := kindLog
	for _, a := range attrs {
		if a.Key == "type" {
			kind = a.Value.String()
			break
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField(&buf, "timestamp", ts.UTC().Format(time.RFC3339Nano))
	writeField(&buf, "level", r.Level.String())
	writeField(&buf, "logger", h.loggerName())
	writeField(&buf, "message", r.Message)
	writeField(&buf, "type", kind)

	seen := map[string]struct{}{"type": {}}
	for k := range reservedKeys {
		seen[k] = struct{}{}
	}
	if kind == kindLog && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		if frame.Function != "" {
			writeField(&buf, "function", frame.Function)
			seen["function"] = struct{}{}
		}
		if frame.File != "" {
			file := filepath.Base(frame.File)
			if frame.Line != 0 {
				file += ":" + strconv.Itoa(frame.Line)
			}
			writeField(&buf, "file", file)
			seen["file"] = struct{}{}
		}
	}

	for _, a := range attrs {
		if _, dup := seen[a.Key]; dup {
			continue
		}
		seen[a.Key] = struct{}{}
		writeField(&buf, a.Key, a.Value.Any())
	}
	buf.WriteByte('}')

	line := sanitizeLine(buf.String())

	h.mu.Lock()
	defer h.mu.Unlock()
	// One Write per record: the line is atomic from the collector's view and
	// stdout needs no further flushing.
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *jsonHandler) loggerName() string {
	if h.name == "" {
		return "root"
	}
	return h.name
}

// appendFlat resolves an attr and flattens groups into dotted keys so the
// record stays a single flat object.
func appendFlat(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		p := a.Key
		if a.Key == "" {
			p = prefix
		} else if prefix != "" {
			p = prefix + "." + a.Key
		}
		for _, ga := range a.Value.Group() {
			dst = appendFlat(dst, p, ga)
		}
		return dst
	}
	if a.Equal(slog.Attr{}) {
		return dst
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	return append(dst, slog.Attr{Key: key, Value: a.Value})
}

func writeField(buf *bytes.Buffer, key string, value any) {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(marshalValue(value))
}

// marshalValue never fails: a value json cannot handle (channels, funcs, NaN)
// is stringified instead, so a bad attribute cannot break the logging call.
func marshalValue(value any) []byte {
	b, err := json.Marshal(value)
	if err != nil {
		b, _ = json.Marshal(fmt.Sprintf("%v", value))
	}
	return b
}
