package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/mcp"
	"github.com/mcptap/mcptap/pkg/replay"
	"github.com/mcptap/mcptap/pkg/router"
	"github.com/mcptap/mcptap/pkg/sse"
)

const (
	// maxRequestBody caps buffered JSON-RPC request bodies.
	maxRequestBody = 10 << 20
	// maxResponseBody caps buffered non-streaming upstream responses.
	maxResponseBody = 10 << 20
	// streamChunkSize is the read size for SSE passthrough.
	streamChunkSize = 4096
)

// Options configure a Handler.
type Options struct {
	Mode   capture.Mode
	Table  *router.Table
	Engine *capture.Engine

	// Replay-mode collaborators. Matcher may be nil in record mode.
	Matcher       *replay.Matcher
	Reconstructor *replay.Reconstructor
	OnCacheMiss   replay.MissPolicy
	MockResponse  json.RawMessage

	// Client performs upstream requests. A zero-timeout client is
	// required so streams are never cut off mid-flight.
	Client *http.Client

	Log *slog.Logger
}

// Handler serves the proxy endpoint and /health.
type Handler struct {
	opts Options
	log  *slog.Logger
}

// NewHandler creates the proxy HTTP handler.
func NewHandler(opts Options) *Handler {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Reconstructor == nil {
		opts.Reconstructor = replay.NewReconstructor(opts.Log)
	}
	if opts.OnCacheMiss == "" {
		opts.OnCacheMiss = replay.MissError
	}
	return &Handler{opts: opts, log: opts.Log}
}

// ServeHTTP dispatches health checks and JSON-RPC requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		h.handleHealth(w, r)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.writeError(w, nil, mcp.ParseError(err.Error()))
		return
	}

	req, rpcErr := mcp.ParseRequestBytes(body)
	if rpcErr != nil {
		h.writeError(w, nil, rpcErr)
		return
	}

	if h.opts.Mode == capture.ModeReplay {
		h.handleReplay(w, r, req)
		return
	}
	h.handleRecord(w, r, req, body)
}

// handleHealth reports proxy status.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"status": "ok",
		"mode":   h.opts.Mode,
	}
	if h.opts.Engine != nil {
		status["pendingCalls"] = h.opts.Engine.PendingCount()
		status["capturedCalls"] = h.opts.Engine.Session().CallCount()
	}
	if h.opts.Table != nil {
		if degraded := h.opts.Table.DegradedServers(); len(degraded) > 0 {
			status["degradedServers"] = degraded
		}
	}

	w.Header().Set("Content-Type", mcp.ContentTypeJSON)
	_ = json.NewEncoder(w).Encode(status)
}

// handleRecord forwards the request to the resolved upstream and
// captures the exchange.
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request, req *mcp.JSONRPCRequest, body []byte) {
	toolName := ""
	var args json.RawMessage

	var upstream *router.Upstream
	if call := req.ToolCall(); call != nil {
		toolName = call.Name
		args = call.Arguments

		up, err := h.opts.Table.Resolve(call.Name)
		if err != nil {
			// Routing miss: the client gets an error and no call is
			// captured.
			h.log.Warn("no route for tool", "tool", call.Name)
			h.writeError(w, req.ID, mcp.ToolNotFoundError(call.Name))
			return
		}
		upstream = up
	} else {
		up, err := h.opts.Table.DefaultServer()
		if err != nil {
			h.log.Warn("no default server for method", "method", req.Method)
			h.writeError(w, req.ID, mcp.MethodNotFoundError(req.Method))
			return
		}
		upstream = up
	}

	trackingID := uuid.NewString()
	h.opts.Engine.Begin(trackingID, upstream.Name, req.Method, toolName, args)
	defer h.opts.Engine.Finalize(trackingID)

	h.forward(w, r, req, body, upstream, trackingID)
}

// forward performs the upstream round trip and relays the response,
// streaming or plain, while capturing it.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, req *mcp.JSONRPCRequest, body []byte, upstream *router.Upstream, trackingID string) {
	outReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, upstream.URL, bytes.NewReader(body))
	if err != nil {
		rpcErr := mcp.UpstreamUnreachableError(upstream.Name, err)
		h.opts.Engine.CaptureError(trackingID, rpcErr)
		h.writeError(w, req.ID, rpcErr)
		return
	}
	outReq.Header.Set("Content-Type", mcp.ContentTypeJSON)
	outReq.Header.Set("Accept", mcp.ContentTypeJSON+", "+mcp.ContentTypeEventStream)

	resp, err := h.opts.Client.Do(outReq)
	if err != nil {
		h.log.Warn("upstream request failed", "server", upstream.Name, "error", err)
		rpcErr := mcp.UpstreamUnreachableError(upstream.Name, err)
		h.opts.Engine.CaptureError(trackingID, rpcErr)
		h.writeError(w, req.ID, rpcErr)
		return
	}
	defer resp.Body.Close()

	if isEventStream(resp.Header.Get("Content-Type")) {
		h.relayStream(w, resp, trackingID)
		return
	}
	h.relayResponse(w, resp, trackingID)
}

// relayStream copies the SSE body to the client chunk-at-a-time and
// captures each complete event block. Client bytes are forwarded
// verbatim; capture works on a decoded copy.
func (h *Handler) relayStream(w http.ResponseWriter, resp *http.Response, trackingID string) {
	w.Header().Set("Content-Type", mcp.ContentTypeEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	dec := sse.NewDecoder(h.log)
	buf := make([]byte, streamChunkSize)
	clientGone := false

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if !clientGone {
				if _, werr := w.Write(chunk); werr != nil {
					// Client went away. Stop writing; the canceled
					// request context ends the upstream read, and the
					// call finalizes with the events captured so far.
					h.log.Debug("client disconnected during stream", "trackingId", trackingID)
					clientGone = true
				} else if flusher != nil {
					flusher.Flush()
				}
			}
			for _, block := range dec.Feed(chunk) {
				h.opts.Engine.CaptureEvent(trackingID, capture.EventFromBlock(block, time.Now()))
			}
		}
		if err != nil {
			if err != io.EOF {
				h.log.Warn("upstream stream ended abnormally", "trackingId", trackingID, "error", err)
			}
			break
		}
	}

	for _, block := range dec.Flush() {
		h.opts.Engine.CaptureEvent(trackingID, capture.EventFromBlock(block, time.Now()))
	}
}

// relayResponse buffers a plain JSON response, captures the outcome and
// forwards status and body verbatim.
func (h *Handler) relayResponse(w http.ResponseWriter, resp *http.Response, trackingID string) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		h.log.Warn("reading upstream response failed", "trackingId", trackingID, "error", err)
		rpcErr := mcp.InternalError(err)
		h.opts.Engine.CaptureError(trackingID, rpcErr)
		h.writeError(w, nil, rpcErr)
		return
	}

	var rpcResp mcp.RawResponse
	if jsonErr := json.Unmarshal(body, &rpcResp); jsonErr == nil {
		if rpcResp.Error != nil {
			h.opts.Engine.CaptureError(trackingID, rpcResp.Error)
		} else {
			h.opts.Engine.CaptureResult(trackingID, rpcResp.Result)
		}
	} else {
		h.log.Warn("upstream response is not JSON-RPC", "trackingId", trackingID)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mcp.ContentTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// handleReplay serves the request from the recorded session.
func (h *Handler) handleReplay(w http.ResponseWriter, r *http.Request, req *mcp.JSONRPCRequest) {
	session := h.opts.Engine.Session()

	if call := req.ToolCall(); call != nil {
		match, best, err := h.opts.Matcher.Match(call.Name, call.Arguments)
		if err == nil {
			session.RecordCacheHit()
			h.log.Info("replay hit", "tool", call.Name, "callId", match.Call.ID,
				"score", match.Score, "exact", match.Exact)
			if rerr := h.opts.Reconstructor.ReplayCall(w, req.ID, match.Call); rerr != nil {
				h.log.Warn("replay write failed", "callId", match.Call.ID, "error", rerr)
			}
			return
		}

		session.RecordCacheMiss()
		h.log.Info("replay miss", "tool", call.Name, "bestScore", best,
			"policy", h.opts.OnCacheMiss)
		h.handleMiss(w, r, req, call.Name, best)
		return
	}

	recorded, err := h.opts.Matcher.MatchMethod(req.Method)
	if err == nil {
		session.RecordCacheHit()
		if rerr := h.opts.Reconstructor.ReplayCall(w, req.ID, recorded); rerr != nil {
			h.log.Warn("replay write failed", "callId", recorded.ID, "error", rerr)
		}
		return
	}
	session.RecordCacheMiss()
	h.handleMiss(w, r, req, "", 0)
}

// handleMiss applies the configured cache-miss policy.
func (h *Handler) handleMiss(w http.ResponseWriter, r *http.Request, req *mcp.JSONRPCRequest, toolName string, bestScore float64) {
	switch h.opts.OnCacheMiss {
	case replay.MissPassthrough:
		// Forward live and capture into the replay session, so a
		// subsequent export carries the fresh call too.
		body, err := json.Marshal(req)
		if err != nil {
			h.writeError(w, req.ID, mcp.InternalError(err))
			return
		}
		h.handleRecord(w, r, req, body)

	case replay.MissMock:
		h.writeResponse(w, mcp.SuccessResponse(req.ID, json.RawMessage(h.opts.MockResponse)))

	default:
		if toolName != "" {
			h.writeError(w, req.ID, mcp.CacheMissError(toolName, bestScore))
			return
		}
		h.writeError(w, req.ID, mcp.MethodNotFoundError(req.Method))
	}
}

// writeError sends a JSON-RPC error with HTTP 200, per JSON-RPC over
// HTTP convention.
func (h *Handler) writeError(w http.ResponseWriter, id interface{}, rpcErr *mcp.JSONRPCError) {
	h.writeResponse(w, mcp.ErrorResponse(id, rpcErr))
}

// writeResponse marshals and sends a JSON-RPC response.
func (h *Handler) writeResponse(w http.ResponseWriter, resp *mcp.JSONRPCResponse) {
	body, err := mcp.MarshalResponse(resp)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mcp.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// isEventStream checks a Content-Type for text/event-stream.
func isEventStream(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), mcp.ContentTypeEventStream)
}
