package replay

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/mcp"
	"github.com/mcptap/mcptap/pkg/sse"
)

// Reconstructor writes a recorded call back to an HTTP client in the
// same shape it was captured: an SSE stream for streamed calls, a
// single JSON-RPC body otherwise. Events are emitted back-to-back with
// a flush after each one; recorded timing is not reproduced.
type Reconstructor struct {
	enc *sse.Encoder
	log *slog.Logger
}

// NewReconstructor creates a reconstructor.
func NewReconstructor(log *slog.Logger) *Reconstructor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconstructor{enc: sse.NewEncoder(), log: log}
}

// ReplayCall writes the recorded call to w, addressed to the incoming
// request's id.
func (r *Reconstructor) ReplayCall(w http.ResponseWriter, requestID interface{}, call *capture.Call) error {
	if call.WasSSE {
		return r.replayStream(w, call)
	}
	return r.replayBody(w, requestID, call)
}

// replayStream re-emits every recorded event in order.
func (r *Reconstructor) replayStream(w http.ResponseWriter, call *capture.Call) error {
	w.Header().Set("Content-Type", mcp.ContentTypeEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for i, ev := range call.Events {
		if _, err := w.Write([]byte(r.enc.FormatEvent(ev.Type, ev.WireData()))); err != nil {
			return fmt.Errorf("replay event %d of call %s: %w", i, call.ID, err)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	r.log.Debug("replayed stream", "callId", call.ID, "events", len(call.Events))
	return nil
}

// replayBody writes the stored result or error as one JSON-RPC response.
func (r *Reconstructor) replayBody(w http.ResponseWriter, requestID interface{}, call *capture.Call) error {
	var resp *mcp.JSONRPCResponse
	if call.Error != nil {
		resp = mcp.ErrorResponse(requestID, call.Error)
	} else {
		resp = mcp.SuccessResponse(requestID, call.Result)
	}

	body, err := mcp.MarshalResponse(resp)
	if err != nil {
		return fmt.Errorf("replay call %s: %w", call.ID, err)
	}

	w.Header().Set("Content-Type", mcp.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("replay call %s: %w", call.ID, err)
	}

	r.log.Debug("replayed response", "callId", call.ID)
	return nil
}
