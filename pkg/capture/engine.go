package capture

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcptap/mcptap/internal/id"
	"github.com/mcptap/mcptap/pkg/mcp"
)

// Engine tracks in-flight calls from begin to finalize and appends
// completed calls to the session. All operations are safe for concurrent
// use from different connections; distinct tracking IDs never contend on
// anything but the pending-map lock.
type Engine struct {
	session *Session
	log     *slog.Logger

	mu      sync.Mutex
	pending map[string]*Call
}

// NewEngine creates a capture engine bound to a session. A nil logger
// discards bookkeeping warnings.
func NewEngine(session *Session, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		session: session,
		log:     log,
		pending: make(map[string]*Call),
	}
}

// Session returns the session this engine appends to.
func (e *Engine) Session() *Session {
	return e.session
}

// Begin creates a pending call keyed by trackingID, timestamped now.
// A duplicate begin for a live trackingID logs a warning and no-ops so a
// retried handler cannot corrupt state.
func (e *Engine) Begin(trackingID, server, method, toolName string, args json.RawMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.pending[trackingID]; exists {
		e.log.Warn("duplicate begin for pending call", "trackingId", trackingID)
		return
	}

	e.pending[trackingID] = &Call{
		ID:        id.ULID(),
		CreatedAt: time.Now(),
		Server:    server,
		Method:    method,
		ToolName:  toolName,
		Arguments: args,
	}
}

// CaptureEvent appends an event to the pending call and marks it as SSE.
// An unknown trackingID (e.g. finalize already ran) logs a warning and
// no-ops; it must never abort the stream.
func (e *Engine) CaptureEvent(trackingID string, ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	call, ok := e.pending[trackingID]
	if !ok {
		e.log.Warn("event for unknown pending call", "trackingId", trackingID, "eventType", ev.Type)
		return
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.RelativeMs = ev.Timestamp.Sub(call.CreatedAt).Milliseconds()

	call.Events = append(call.Events, ev)
	call.WasSSE = true
}

// CaptureResult records a non-streaming result on the pending call.
func (e *Engine) CaptureResult(trackingID string, result json.RawMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	call, ok := e.pending[trackingID]
	if !ok {
		e.log.Warn("result for unknown pending call", "trackingId", trackingID)
		return
	}
	call.Result = result
}

// CaptureError records an error on the pending call.
func (e *Engine) CaptureError(trackingID string, rpcErr *mcp.JSONRPCError) {
	e.mu.Lock()
	defer e.mu.Unlock()

	call, ok := e.pending[trackingID]
	if !ok {
		e.log.Warn("error for unknown pending call", "trackingId", trackingID)
		return
	}
	call.Error = rpcErr
}

// Finalize computes duration and derived metrics, moves the call from
// pending to the session's completed list, and removes the pending entry.
// Finalizing an unknown trackingID is a no-op, which makes retried
// stream-close handlers safe.
func (e *Engine) Finalize(trackingID string) {
	e.mu.Lock()
	call, ok := e.pending[trackingID]
	if ok {
		delete(e.pending, trackingID)
	}
	e.mu.Unlock()

	if !ok {
		e.log.Debug("finalize for unknown pending call", "trackingId", trackingID)
		return
	}

	e.complete(call)
}

// FinalizeAll finalizes every pending call in its current, possibly
// partial state. Used on shutdown so no capture is silently lost.
func (e *Engine) FinalizeAll() {
	e.mu.Lock()
	calls := make([]*Call, 0, len(e.pending))
	for trackingID, call := range e.pending {
		calls = append(calls, call)
		delete(e.pending, trackingID)
	}
	e.mu.Unlock()

	for _, call := range calls {
		e.complete(call)
	}
}

// PendingCount returns the number of in-flight calls.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// complete derives final fields and appends the call to the session.
func (e *Engine) complete(call *Call) {
	call.DurationMs = time.Since(call.CreatedAt).Milliseconds()

	if call.WasSSE {
		call.Metrics = deriveMetrics(call)
		deriveSSEOutcome(call)
	}

	e.session.appendCall(call)
}

// deriveMetrics computes time-to-first-event and events-per-second from
// the event list.
func deriveMetrics(call *Call) *CallMetrics {
	if len(call.Events) == 0 {
		return nil
	}

	m := &CallMetrics{
		TimeToFirstEventMs: call.Events[0].RelativeMs,
	}

	span := call.Events[len(call.Events)-1].RelativeMs
	if span > 0 {
		m.EventsPerSecond = float64(len(call.Events)) / (float64(span) / 1000.0)
	}
	return m
}

// deriveSSEOutcome populates Result or Error from the last event's
// payload: an "error" member becomes the call error, a "result" member
// becomes the result, and otherwise the whole payload stands in as the
// result. Explicitly captured results and errors are left untouched.
func deriveSSEOutcome(call *Call) {
	if call.Result != nil || call.Error != nil || len(call.Events) == 0 {
		return
	}

	last := call.Events[len(call.Events)-1]

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(last.Payload, &obj); err == nil {
		if errRaw, ok := obj["error"]; ok {
			call.Error = errorFromPayload(errRaw)
			return
		}
		if result, ok := obj["result"]; ok {
			call.Result = result
			return
		}
	}

	call.Result = last.Payload
}

// errorFromPayload decodes an error member into a JSON-RPC error,
// falling back to an internal error wrapping the raw payload.
func errorFromPayload(raw json.RawMessage) *mcp.JSONRPCError {
	var rpcErr mcp.JSONRPCError
	if err := json.Unmarshal(raw, &rpcErr); err == nil && rpcErr.Code != 0 {
		return &rpcErr
	}
	return &mcp.JSONRPCError{
		Code:    mcp.ErrCodeInternalError,
		Message: "upstream stream reported an error",
		Data:    raw,
	}
}
