package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteText renders v for a terminal: a list of scalars is one value per
// line, an object is "key: value" lines, and nested values are indented.
// A top-level "content" string is printed verbatim after the other fields.
func WriteText(w io.Writer, v any) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	var b strings.Builder
	writeText(&b, x, 0)
	_, err = io.WriteString(w, b.String())
	return err
}

func writeText(b *strings.Builder, v any, level int) {
	pad := strings.Repeat("  ", level)
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			if isScalar(it) {
				b.WriteString(pad + scalar(it) + "\n")
				continue
			}
			b.WriteString(pad + "-\n")
			writeText(b, it, level+1)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var body *string
		for _, k := range keys {
			val := t[k]
			if s, ok := val.(string); ok && level == 0 && k == "content" {
				body = &s
				continue
			}
			if isScalar(val) {
				b.WriteString(pad + k + ": " + scalar(val) + "\n")
				continue
			}
			b.WriteString(pad + k + ":\n")
			writeText(b, val, level+1)
		}
		if body != nil {
			b.WriteString(*body)
			if !strings.HasSuffix(*body, "\n") {
				b.WriteByte('\n')
			}
		}
	default:
		b.WriteString(pad + scalar(t) + "\n")
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return false
	}
	return true
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
