package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AsString coerces scalar document values to a trimmed string. Numbers are
// rendered without a trailing fraction when integral.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return AsString(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// AsInt coerces numeric or numeric-string values, returning 0 otherwise.
func AsInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case int32:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	case float32:
		return int(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case string:
		s := strings.TrimSpace(FoldDigits(t))
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// AsBool coerces booleans and the usual truthy strings.
func AsBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		}
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

// AsMap returns v as a document map, or nil when it is not one.
func AsMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[AsString(k)] = val
		}
		return out
	}
	return nil
}

// AsSlice returns v as a slice of documents, or nil.
func AsSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

// SplitFreeText splits a comma separated string. Both the Latin comma and the
// Arabic comma are separators.
func SplitFreeText(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '،' || r == '\n' || r == ';' || r == '؛'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AsStringList coerces an array or a comma separated string into a trimmed,
// deduplicated list. Order of first occurrence is kept.
func AsStringList(v any) []string {
	var items []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		items = SplitFreeText(t)
	case []string:
		items = t
	default:
		for _, el := range AsSlice(v) {
			if m := AsMap(el); m != nil {
				items = append(items, AsString(m["name"]))
				continue
			}
			items = append(items, AsString(el))
		}
	}
	return dedupeStrings(items)
}

// AsNameList coerces sibling-style fields into name entries. Accepts a comma
// separated string, an array of strings, or an array of {name} objects.
func AsNameList(v any) []NameEntry {
	names := AsStringList(v)
	out := make([]NameEntry, 0, len(names))
	for _, n := range names {
		out = append(out, NameEntry{Name: n})
	}
	return out
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// FoldDigits maps Arabic-Indic and Eastern Arabic-Indic digits to ASCII.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// CloneValue deep copies maps and slices found in raw documents.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneDoc(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = CloneValue(el)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// CloneDoc deep copies a raw document.
func CloneDoc(doc RawDoc) RawDoc {
	if doc == nil {
		return nil
	}
	out := make(RawDoc, len(doc))
	for k, v := range doc {
		out[k] = CloneValue(v)
	}
	return out
}
