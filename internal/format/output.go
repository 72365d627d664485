package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formats lists the accepted values of --format.
var Formats = []string{"json", "edn", "text"}

// Valid reports whether name is a known output format ("" means json).
func Valid(name string) bool {
	if name == "" {
		return true
	}
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}

// Write renders v in the requested format.
//
// json is the default and the contract for scripts; edn mirrors it with
// keywords; text is for people.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteJSON writes one JSON document followed by a newline. HTML characters
// are not escaped: file content is passed through as written.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// generic converts v to the plain map/slice/scalar tree its JSON encoding
// describes, keeping numbers exact.
func generic(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
