// Package sanitize turns arbitrary payloads into JSON-safe values before they
// are queued or published as audit records.
//
// Payloads originate from HTTP client request/response objects that can carry
// circular references, native handles, and transport internals. Naive JSON
// serialization would either fail on cycles or leak connection internals and
// credentials into durable storage, so every payload is walked and rewritten
// here first. The walk is pure (no I/O) to keep it unit-testable in isolation.
package sanitize

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// MaxDepth bounds recursion; containers nested deeper are replaced by
	// MaxDepthMarker.
	MaxDepth = 20
	// MaxEntries caps array elements and object keys; excess is dropped.
	MaxEntries = 100
	// MaxStringLen caps individual string values; longer values keep a
	// MaxStringLen prefix plus TruncatedSuffix.
	MaxStringLen = 1500

	CircularMarker  = "[circular reference]"
	MaxDepthMarker  = "[max depth reached]"
	TruncatedSuffix = "... [truncated]"
	FieldErrMarker  = "[sanitization error]"
)

// blockedKeys are dropped outright: they are known to contain connection
// handles, stream bookkeeping, or client configuration with secrets.
var blockedKeys = map[string]struct{}{
	"socket":         {},
	"parser":         {},
	"req":            {},
	"res":            {},
	"request":        {},
	"response":       {},
	"client":         {},
	"connection":     {},
	"agent":          {},
	"httpagent":      {},
	"httpsagent":     {},
	"proxy":          {},
	"config":         {},
	"_events":        {},
	"_eventscount":   {},
	"_readablestate": {},
	"_writablestate": {},
}

// Sanitize rewrites v into a JSON-serializable value. It never panics: a
// failure on an individual field degrades to FieldErrMarker, and a top-level
// failure returns {"error": "Failed to sanitize object"}. Sanitizing an
// already-sanitized value yields an identical result.
func Sanitize(v any) (out any) {
	defer func() {
		if recover() != nil {
			out = map[string]any{"error": "Failed to sanitize object"}
		}
	}()
	return walk(v, 0, map[uintptr]struct{}{})
}

// safeWalk isolates per-field panics so one bad field cannot abort the pass.
func safeWalk(v any, depth int, seen map[uintptr]struct{}) (out any) {
	defer func() {
		if recover() != nil {
			out = FieldErrMarker
		}
	}()
	return walk(v, depth, seen)
}

func walk(v any, depth int, seen map[uintptr]struct{}) any {
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case string:
		return truncate(t)
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return t
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *regexp.Regexp:
		if t == nil {
			return nil
		}
		return t.String()
	case error:
		return errorShape(t)
	}

	if m, ok := v.(json.Marshaler); ok {
		if out, ok := viaMarshaler(m, depth, seen); ok {
			return out
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if marked, marker := checkCycle(rv, seen); marked {
			return marker
		}
		return walk(rv.Elem().Interface(), depth, seen)

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if marked, marker := checkCycle(rv, seen); marked {
			return marker
		}
		return walkList(rv, depth, seen)

	case reflect.Array:
		return walkList(rv, depth, seen)

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if marked, marker := checkCycle(rv, seen); marked {
			return marker
		}
		return walkMap(rv, depth, seen)

	case reflect.Struct:
		return walkStruct(rv, depth, seen)

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		// Not representable; drop silently like other native handles.
		return nil

	default:
		// Named primitive kinds (e.g. time.Duration) land here.
		return v
	}
}

// checkCycle marks container values as visited for the rest of the pass and
// substitutes a marker when one is revisited.
func checkCycle(rv reflect.Value, seen map[uintptr]struct{}) (bool, string) {
	ptr := rv.Pointer()
	if ptr == 0 {
		return false, ""
	}
	if _, visited := seen[ptr]; visited {
		return true, CircularMarker
	}
	seen[ptr] = struct{}{}
	return false, ""
}

func walkList(rv reflect.Value, depth int, seen map[uintptr]struct{}) any {
	if depth >= MaxDepth {
		return MaxDepthMarker
	}
	n := rv.Len()
	if n > MaxEntries {
		n = MaxEntries
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, safeWalk(rv.Index(i).Interface(), depth+1, seen))
	}
	return out
}

func walkMap(rv reflect.Value, depth int, seen map[uintptr]struct{}) any {
	if depth >= MaxDepth {
		return MaxDepthMarker
	}

	keys := make([]string, 0, rv.Len())
	values := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := keyString(iter.Key())
		keys = append(keys, key)
		values[key] = iter.Value()
	}
	// Deterministic enumeration so the MaxEntries cap keeps a stable subset.
	sort.Strings(keys)

	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if len(out) >= MaxEntries {
			break
		}
		if _, blocked := blockedKeys[strings.ToLower(key)]; blocked {
			continue
		}
		out[key] = safeWalk(values[key].Interface(), depth+1, seen)
	}
	return out
}

func walkStruct(rv reflect.Value, depth int, seen map[uintptr]struct{}) any {
	if depth >= MaxDepth {
		return MaxDepthMarker
	}

	rt := rv.Type()
	out := make(map[string]any)
	for i := 0; i < rt.NumField() && len(out) < MaxEntries; i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if _, blocked := blockedKeys[strings.ToLower(name)]; blocked {
			continue
		}
		out[name] = safeWalk(rv.Field(i).Interface(), depth+1, seen)
	}
	return out
}

// viaMarshaler prefers a value's own JSON conversion over generic field
// walking. Failures (error or panic) fall back to the reflect walk.
func viaMarshaler(m json.Marshaler, depth int, seen map[uintptr]struct{}) (out any, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()
	raw, err := m.MarshalJSON()
	if err != nil {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	return walk(decoded, depth, seen), true
}

// errorShape flattens an error into a plain record. Stack traces and wrapped
// internals are never serialized.
func errorShape(err error) map[string]any {
	out := map[string]any{
		"name":    errorName(err),
		"message": truncate(safeMessage(err)),
	}
	if c, ok := err.(interface{ Code() string }); ok {
		out["code"] = c.Code()
	}
	if s, ok := err.(interface{ StatusCode() int }); ok {
		status := s.StatusCode()
		out["status"] = status
		out["statusText"] = http.StatusText(status)
	}
	return out
}

func errorName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "Error"
	}
	return t.Name()
}

func safeMessage(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = FieldErrMarker
		}
	}()
	return err.Error()
}

func keyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func truncate(s string) string {
	if len(s) <= MaxStringLen || alreadyTruncated(s) {
		return s
	}
	return s[:MaxStringLen] + TruncatedSuffix
}

// alreadyTruncated keeps Sanitize idempotent: a value this pass produced is
// exactly MaxStringLen runes plus the suffix and must not shrink again.
func alreadyTruncated(s string) bool {
	return len(s) == MaxStringLen+len(TruncatedSuffix) &&
		strings.HasSuffix(s, TruncatedSuffix)
}
