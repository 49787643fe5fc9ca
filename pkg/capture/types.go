package capture

import (
	"encoding/json"
	"time"

	"github.com/mcptap/mcptap/pkg/mcp"
	"github.com/mcptap/mcptap/pkg/sse"
)

// Mode is the operating mode of a session.
type Mode string

// Operating modes.
const (
	ModeRecord Mode = "record"
	ModeReplay Mode = "replay"
)

// IsValid checks if the mode is valid.
func (m Mode) IsValid() bool {
	return m == ModeRecord || m == ModeReplay
}

// Event is one captured SSE frame. Payload holds parsed JSON when the
// wire data was valid JSON, otherwise the original text preserved as a
// JSON string with Raw set.
type Event struct {
	Type       string          `json:"eventType"`
	Payload    json.RawMessage `json:"payload"`
	Raw        bool            `json:"raw,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	RelativeMs int64           `json:"relativeMs"`
}

// EventFromBlock converts a decoded wire block into a captured event,
// applying the parse-as-JSON-else-keep-raw payload rule.
func EventFromBlock(block sse.Block, now time.Time) Event {
	payload, wasJSON := sse.ParsePayload(block.Data)
	return Event{
		Type:      block.Type,
		Payload:   payload,
		Raw:       !wasJSON,
		Timestamp: now,
	}
}

// WireData renders the event's payload back to the exact data string the
// encoder should emit on replay.
func (e Event) WireData() string {
	return sse.RenderPayload(e.Payload, !e.Raw)
}

// CallMetrics are derived from an SSE call's event list at finalize.
type CallMetrics struct {
	TimeToFirstEventMs int64   `json:"timeToFirstEventMs"`
	EventsPerSecond    float64 `json:"eventsPerSecond"`
}

// Call is one logical tool invocation (or other JSON-RPC method call).
// A Call is mutable only while pending; after finalize it is immutable
// and owned by the session's call list.
type Call struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"createdAt"`
	Server     string            `json:"server"`
	Method     string            `json:"method"`
	ToolName   string            `json:"toolName,omitempty"`
	Arguments  json.RawMessage   `json:"arguments,omitempty"`
	Result     json.RawMessage   `json:"result,omitempty"`
	Error      *mcp.JSONRPCError `json:"error,omitempty"`
	WasSSE     bool              `json:"wasSse"`
	Events     []Event           `json:"events,omitempty"`
	DurationMs int64             `json:"durationMs"`
	Metrics    *CallMetrics      `json:"metrics,omitempty"`
}

// SessionStats summarizes a session's captured calls. The cache
// counters are only populated in replay mode.
type SessionStats struct {
	TotalCalls     int            `json:"totalCalls"`
	SSECalls       int            `json:"sseCalls"`
	PlainCalls     int            `json:"plainCalls"`
	ErrorCalls     int            `json:"errorCalls"`
	CacheHits      int            `json:"cacheHits,omitempty"`
	CacheMisses    int            `json:"cacheMisses,omitempty"`
	CallsPerServer map[string]int `json:"callsPerServer,omitempty"`
}

// SessionExport is the serializable form of a session, used by the store
// and by replay loading.
type SessionExport struct {
	ID        string       `json:"id"`
	Mode      Mode         `json:"mode"`
	StartTime time.Time    `json:"startTime"`
	EndTime   *time.Time   `json:"endTime,omitempty"`
	Servers   []string     `json:"servers,omitempty"`
	Calls     []*Call      `json:"calls"`
	Stats     SessionStats `json:"stats"`
}
