package element

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/c360/confsync/errors"
)

// Decode parses a TOML document into an Element tree. The top-level element is
// always a table. Keys within decoded tables are sorted, since parsed order
// carries no meaning for keyed lookup.
func Decode(data []byte) (Element, error) {
	raw := map[string]any{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Null(), errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrMalformedConfig, err.Error()),
			"Element", "Decode", "toml parse")
	}
	return fromGo(raw), nil
}

// DecodeString parses a TOML document string into an Element tree
func DecodeString(text string) (Element, error) {
	return Decode([]byte(text))
}

func fromGo(v any) Element {
	switch val := v.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(val)
	case int64:
		return NewInteger(val)
	case int:
		return NewInteger(int64(val))
	case float64:
		return NewFloat(val)
	case string:
		return NewString(val)
	case time.Time:
		// Config schemas have no date fields; carry the text form through
		return NewString(val.Format(time.RFC3339))
	case []any:
		items := make([]Element, 0, len(val))
		for _, item := range val {
			items = append(items, fromGo(item))
		}
		return NewArray(items...)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := NewTable()
		for _, k := range keys {
			t.Set(k, fromGo(val[k]))
		}
		return NewTableElement(t)
	default:
		return Null()
	}
}

// Encode renders a table element to TOML text, preserving key order and
// emitting attached comments as leading "# " lines. Within each table,
// key-value pairs are written before subtable sections as TOML requires.
func Encode(el Element) ([]byte, error) {
	t, err := el.AsTable()
	if err != nil {
		return nil, errors.Wrap(err, "Element", "Encode", "top-level table check")
	}
	var b strings.Builder
	writeTable(&b, t, "")
	return []byte(b.String()), nil
}

// EncodeString renders a table element to a TOML document string
func EncodeString(el Element) (string, error) {
	data, err := Encode(el)
	return string(data), err
}

func writeTable(b *strings.Builder, t *Table, prefix string) {
	var subtables []string
	for _, key := range t.Keys() {
		el, _ := t.Get(key)
		if el.Kind() == KindTable {
			subtables = append(subtables, key)
			continue
		}
		writeComments(b, t.Comments(key))
		b.WriteString(bareKey(key))
		b.WriteString(" = ")
		writeValue(b, el)
		b.WriteByte('\n')
	}
	for _, key := range subtables {
		el, _ := t.Get(key)
		sub, _ := el.AsTable()
		path := bareKey(key)
		if prefix != "" {
			path = prefix + "." + path
		}
		b.WriteByte('\n')
		writeComments(b, t.Comments(key))
		b.WriteString("[")
		b.WriteString(path)
		b.WriteString("]\n")
		writeTable(b, sub, path)
	}
}

func writeComments(b *strings.Builder, comments []string) {
	for _, line := range comments {
		b.WriteString("# ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func writeValue(b *strings.Builder, el Element) {
	switch el.Kind() {
	case KindBool:
		v, _ := el.AsBool()
		b.WriteString(strconv.FormatBool(v))
	case KindInteger:
		v, _ := el.AsInteger()
		b.WriteString(strconv.FormatInt(v, 10))
	case KindFloat:
		v, _ := el.AsFloat()
		s := strconv.FormatFloat(v, 'g', -1, 64)
		// a float token needs a point or exponent to parse back as float
		if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "inf") && !strings.Contains(s, "NaN") {
			s += ".0"
		}
		b.WriteString(s)
	case KindString:
		v, _ := el.AsString()
		b.WriteString(quoteString(v))
	case KindArray:
		items, _ := el.AsArray()
		b.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case KindNull:
		// TOML has no null; an empty string keeps the document parseable and
		// the failed field recoverable as a per-field warning on reload
		b.WriteString(`""`)
	case KindTable:
		// inline form, used only for tables nested inside arrays
		t, _ := el.AsTable()
		b.WriteByte('{')
		for i, key := range t.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(bareKey(key))
			b.WriteString(" = ")
			sub, _ := t.Get(key)
			writeValue(b, sub)
		}
		b.WriteByte('}')
	}
}

// quoteString writes a TOML basic string
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				b.WriteString(fmt.Sprintf(`\u%04X`, r))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func bareKey(key string) string {
	for _, r := range key {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_') {
			return quoteString(key)
		}
	}
	if key == "" {
		return `""`
	}
	return key
}
