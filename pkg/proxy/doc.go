// Package proxy is the client-facing HTTP server: it accepts JSON-RPC
// POST requests, routes them, and either forwards to the live upstream
// while capturing (record mode) or serves recorded responses (replay
// mode).
//
// Each request runs on its own connection goroutine and holds no global
// lock. A streaming forward copies upstream bytes to the client
// chunk-at-a-time with a flush per chunk, feeding the same bytes to the
// SSE decoder for capture, so recording adds no latency to the stream.
// Finalize runs on a deferred path so partial captures survive upstream
// failures and client disconnects.
package proxy
