package replay

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/mcp"
	"github.com/mcptap/mcptap/pkg/sse"
)

func TestReplayPlainResponse(t *testing.T) {
	r := NewReconstructor(nil)
	rec := httptest.NewRecorder()

	call := &capture.Call{ID: "c1", Result: json.RawMessage(`{"value":8}`)}
	require.NoError(t, r.ReplayCall(rec, float64(7), call))

	assert.Equal(t, mcp.ContentTypeJSON, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":{"value":8}}`, rec.Body.String())
}

func TestReplayErrorResponse(t *testing.T) {
	r := NewReconstructor(nil)
	rec := httptest.NewRecorder()

	call := &capture.Call{ID: "c1", Error: &mcp.JSONRPCError{Code: -32603, Message: "boom"}}
	require.NoError(t, r.ReplayCall(rec, "req-1", call))

	var resp struct {
		Error *mcp.JSONRPCError `json:"error"`
		ID    string            `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32603, resp.Error.Code)
	assert.Equal(t, "req-1", resp.ID)
}

func TestReplayStreamReEmitsEvents(t *testing.T) {
	r := NewReconstructor(nil)
	rec := httptest.NewRecorder()

	now := time.Now()
	call := &capture.Call{
		ID:     "c1",
		WasSSE: true,
		Events: []capture.Event{
			capture.EventFromBlock(sse.Block{Type: "progress", Data: `{"percent":50}`}, now),
			capture.EventFromBlock(sse.Block{Type: "message", Data: `{"result":"done"}`}, now),
		},
	}
	require.NoError(t, r.ReplayCall(rec, 1, call))

	assert.Equal(t, mcp.ContentTypeEventStream, rec.Header().Get("Content-Type"))

	// The emitted stream must decode back to the recorded events.
	dec := sse.NewDecoder(nil)
	blocks := dec.Feed(rec.Body.Bytes())
	require.Len(t, blocks, 2)
	assert.Equal(t, "progress", blocks[0].Type)
	assert.JSONEq(t, `{"percent":50}`, blocks[0].Data)
	assert.Equal(t, "message", blocks[1].Type)
	assert.JSONEq(t, `{"result":"done"}`, blocks[1].Data)
	assert.True(t, rec.Flushed)
}

func TestReplayStreamPreservesRawPayload(t *testing.T) {
	r := NewReconstructor(nil)
	rec := httptest.NewRecorder()

	call := &capture.Call{
		ID:     "c1",
		WasSSE: true,
		Events: []capture.Event{
			capture.EventFromBlock(sse.Block{Type: "message", Data: `[DONE]`}, time.Now()),
		},
	}
	require.NoError(t, r.ReplayCall(rec, 1, call))

	dec := sse.NewDecoder(nil)
	blocks := dec.Feed(rec.Body.Bytes())
	require.Len(t, blocks, 1)
	assert.Equal(t, `[DONE]`, blocks[0].Data)
}
