package format

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes the EDN form of v's JSON encoding: objects become maps
// with keyword keys, arrays become vectors, null becomes nil.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	e := ednWriter{pretty: pretty}
	e.value(x, 0)
	e.b.WriteByte('\n')
	_, err = io.WriteString(w, e.b.String())
	return err
}

type ednWriter struct {
	b      strings.Builder
	pretty bool
}

func (e *ednWriter) value(v any, level int) {
	switch t := v.(type) {
	case nil:
		e.b.WriteString("nil")
	case bool:
		e.b.WriteString(strconv.FormatBool(t))
	case string:
		e.b.WriteString(strconv.Quote(t))
	case json.Number:
		e.b.WriteString(t.String())
	case []any:
		e.seq('[', ']', len(t), level, func(i int) { e.value(t[i], level+1) })
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.seq('{', '}', len(keys), level, func(i int) {
			e.key(keys[i])
			e.b.WriteByte(' ')
			e.value(t[keys[i]], level+1)
		})
	default:
		e.b.WriteString(strconv.Quote("unsupported"))
	}
}

// seq writes n elements between open and close, one per line when pretty.
func (e *ednWriter) seq(open, close byte, n, level int, elem func(int)) {
	e.b.WriteByte(open)
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			e.b.WriteByte('\n')
			e.b.WriteString(strings.Repeat("  ", level+1))
		case i > 0:
			e.b.WriteByte(' ')
		}
		elem(i)
	}
	if e.pretty && n > 0 {
		e.b.WriteByte('\n')
		e.b.WriteString(strings.Repeat("  ", level))
	}
	e.b.WriteByte(close)
}

// key writes k as a keyword, falling back to a string key when k has
// characters a keyword cannot carry.
func (e *ednWriter) key(k string) {
	if isKeyword(k) {
		e.b.WriteByte(':')
		e.b.WriteString(strings.ReplaceAll(k, "_", "-"))
		return
	}
	e.b.WriteString(strconv.Quote(k))
}

func isKeyword(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '?', r == '!':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
