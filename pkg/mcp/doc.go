// Package mcp provides the JSON-RPC 2.0 wire types and helpers for the
// Model Context Protocol as seen by the proxy.
//
// The proxy understands two methods natively:
//
//	tools/list (upstream tool discovery)
//	tools/call (tool invocation)
//
// Any other method is forwarded or replayed opaquely; the proxy never
// interprets tool semantics. Requests carry params as raw JSON so payloads
// round-trip byte-exact between capture and replay.
package mcp
