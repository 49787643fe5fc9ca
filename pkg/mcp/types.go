package mcp

import "encoding/json"

// Methods the proxy understands natively. Anything else is handled opaquely.
const (
	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"
)

// Wildcard marks a server as a catch-all route for any tool name.
const Wildcard = "*"

// ContentTypeJSON is the media type for plain JSON-RPC responses.
const ContentTypeJSON = "application/json"

// ContentTypeEventStream is the media type for SSE streaming responses.
const ContentTypeEventStream = "text/event-stream"

// JSONRPCRequest represents an incoming JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"` // string, number, or nil for notifications
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents an outgoing JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// RawResponse is a JSON-RPC 2.0 response as received from an upstream,
// with the result kept undecoded.
type RawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ToolCallParams are the params of a tools/call request. Arguments are
// kept undecoded so captures preserve the client's exact JSON.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolDefinition describes a tool advertised by an upstream server.
// InputSchema is kept opaque; the proxy never validates tool arguments.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolsListResult is the result object of a tools/list response.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}
