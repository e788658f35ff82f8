package validation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"formextract/pkg/models"
)

// FieldPath addresses a leaf inside a nested extraction, one segment per level.
type FieldPath []string

// ParsePath splits a dotted path such as "address.postalCode".
func ParsePath(dotted string) FieldPath {
	if dotted == "" {
		return nil
	}
	return FieldPath(strings.Split(dotted, "."))
}

// String returns the dotted form of the path.
func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// Leaf returns the last segment, or "" for an empty path.
func (p FieldPath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its last segment.
func (p FieldPath) Parent() FieldPath {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// HasSuffix reports whether the trailing segments of p equal suffix segment by
// segment. "personal.firstName" has suffix "firstName"; "spouseFirstName" does not.
func (p FieldPath) HasSuffix(suffix FieldPath) bool {
	if len(suffix) == 0 || len(suffix) > len(p) {
		return false
	}
	return slices.Equal(p[len(p)-len(suffix):], suffix)
}

// containsSegment reports whether any segment contains sub, ignoring case.
func (p FieldPath) containsSegment(sub string) bool {
	sub = strings.ToLower(sub)
	for _, segment := range p {
		if strings.Contains(strings.ToLower(segment), sub) {
			return true
		}
	}
	return false
}

// Field is one flattened leaf of a structured extraction.
type Field struct {
	Path FieldPath

	// Value is the leaf rendered as a string. Empty for nil, false and zero.
	Value string

	// Raw is the leaf as decoded.
	Raw any
}

// Filled reports whether the value is non-empty after trimming.
func (f Field) Filled() bool {
	return strings.TrimSpace(f.Value) != ""
}

// Flatten walks a nested extraction and returns its leaves sorted by path.
// Maps nested at any depth are descended; every other value is a leaf.
func Flatten(data map[string]any) []Field {
	var fields []Field
	flattenInto(&fields, nil, data)
	slices.SortFunc(fields, func(a, b Field) int {
		return strings.Compare(a.Path.String(), b.Path.String())
	})
	return fields
}

func flattenInto(fields *[]Field, prefix FieldPath, data map[string]any) {
	for key, value := range data {
		path := append(slices.Clone(prefix), key)
		if nested, ok := asMap(value); ok {
			flattenInto(fields, path, nested)
			continue
		}
		*fields = append(*fields, Field{Path: path, Value: leafString(value), Raw: value})
	}
}

// asMap accepts both plain decoded maps and models.StructuredExtraction.
func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case models.StructuredExtraction:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// leafString renders a leaf the way a form field reads. Falsy scalars (nil,
// false, zero) count as empty.
func leafString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// composites returns every nested map in data that holds at least one scalar
// child, keyed by its path. Only scalar children are kept as components.
func composites(data map[string]any) map[string]map[string]string {
	out := make(map[string]map[string]string)
	collectComposites(out, nil, data)
	return out
}

func collectComposites(out map[string]map[string]string, prefix FieldPath, data map[string]any) {
	for key, value := range data {
		nested, ok := asMap(value)
		if !ok {
			continue
		}
		path := append(slices.Clone(prefix), key)
		components := make(map[string]string)
		for childKey, child := range nested {
			if _, isMap := asMap(child); isMap {
				continue
			}
			components[childKey] = leafString(child)
		}
		if len(components) > 0 {
			out[path.String()] = components
		}
		collectComposites(out, path, nested)
	}
}
