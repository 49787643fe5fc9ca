package sse

import "strings"

// Encoder renders event blocks back into SSE wire format. It is the exact
// inverse of the Decoder for every block the proxy captures.
type Encoder struct{}

// NewEncoder creates a new SSE encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// FormatBlock renders a block into wire format. The event: line is omitted
// for the default "message" type; multiline data is split into multiple
// data: fields; the block is dispatched with a trailing blank line.
func (e *Encoder) FormatBlock(block Block) string {
	return e.FormatEvent(block.Type, block.Data)
}

// FormatEvent renders an event type and payload into wire format.
func (e *Encoder) FormatEvent(eventType, data string) string {
	var sb strings.Builder

	if eventType != "" && eventType != DefaultEventType {
		sb.WriteString(fieldEvent)
		sb.WriteByte(' ')
		sb.WriteString(eventType)
		sb.WriteByte('\n')
	}

	for _, line := range strings.Split(data, "\n") {
		sb.WriteString(fieldData)
		sb.WriteByte(' ')
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	return sb.String()
}
