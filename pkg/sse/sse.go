// Package sse implements the Server-Sent Events wire codec used by the
// proxy: an incremental decoder that turns raw response chunks into
// complete event blocks, and an encoder that renders stored events back
// into wire format for replay.
//
// See: https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// SSE field prefixes.
const (
	fieldEvent   = "event:"
	fieldData    = "data:"
	fieldID      = "id:"
	fieldRetry   = "retry:"
	fieldComment = ":"
)

// DefaultEventType is assigned to blocks whose wire form omits an
// explicit event: line, per the SSE specification.
const DefaultEventType = "message"

// Block is one complete SSE frame parsed off the wire. Data holds the
// joined payload of all data: lines in the block.
type Block struct {
	Type string
	Data string
}
