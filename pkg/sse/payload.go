package sse

import "encoding/json"

// ParsePayload applies the capture payload rule to a block's data: if the
// data parses as JSON it is kept verbatim as raw JSON; otherwise the text
// is preserved as a JSON-encoded string. The second return reports whether
// the data was valid JSON.
func ParsePayload(data string) (json.RawMessage, bool) {
	trimmed := []byte(data)
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed), true
	}

	quoted, err := json.Marshal(data)
	if err != nil {
		// Marshal of a string cannot fail; guard anyway.
		return json.RawMessage(`""`), false
	}
	return json.RawMessage(quoted), false
}

// RenderPayload is the inverse of ParsePayload: JSON payloads are emitted
// as-is, while payloads captured from non-JSON text are unquoted back to
// the original raw string.
func RenderPayload(payload json.RawMessage, wasJSON bool) string {
	if wasJSON {
		return string(payload)
	}

	var s string
	if err := json.Unmarshal(payload, &s); err != nil {
		return string(payload)
	}
	return s
}
