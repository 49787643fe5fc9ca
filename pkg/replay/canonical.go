package replay

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// canonicalOptions renders JSON with object keys sorted so equal
// arguments always produce the same text.
var canonicalOptions = ojg.Options{Sort: true}

// CanonicalArgs renders tool arguments in canonical form: object keys
// sorted at every level and string values trimmed with internal
// whitespace runs collapsed. Empty or absent arguments canonicalize to
// "{}".
func CanonicalArgs(args []byte) (string, error) {
	if len(args) == 0 {
		return "{}", nil
	}

	parsed, err := oj.Parse(args)
	if err != nil {
		return "", fmt.Errorf("canonicalize arguments: %w", err)
	}
	return oj.JSON(normalizeValue(parsed), &canonicalOptions), nil
}

// ArgumentFields splits arguments into one comparable string per
// top-level field, the unit the semantic scorer compares. String values
// are kept unquoted so scoring sees the text itself, not its JSON
// punctuation. Non-object arguments map to a single field with an empty
// name.
func ArgumentFields(args []byte) (map[string]string, error) {
	if len(args) == 0 {
		return map[string]string{}, nil
	}

	parsed, err := oj.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("canonicalize arguments: %w", err)
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return map[string]string{"": fieldText(parsed)}, nil
	}

	fields := make(map[string]string, len(obj))
	for key, val := range obj {
		fields[key] = fieldText(val)
	}
	return fields, nil
}

// fieldText renders one field value for scoring: bare collapsed text for
// strings, canonical JSON for everything else.
func fieldText(v interface{}) string {
	if s, ok := v.(string); ok {
		return collapseWhitespace(s)
	}
	return oj.JSON(normalizeValue(v), &canonicalOptions)
}

// normalizeValue collapses whitespace in every string reachable from v.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for key, val := range t {
			t[key] = normalizeValue(val)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	case string:
		return collapseWhitespace(t)
	default:
		return v
	}
}

// collapseWhitespace trims and squeezes runs of whitespace to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
