package mcp

import "fmt"

// Standard JSON-RPC 2.0 error codes.
const (
	// ErrCodeParseError indicates invalid JSON was received.
	ErrCodeParseError = -32700

	// ErrCodeInvalidRequest indicates the JSON is not a valid JSON-RPC request.
	ErrCodeInvalidRequest = -32600

	// ErrCodeMethodNotFound indicates the method does not exist or is unavailable.
	ErrCodeMethodNotFound = -32601

	// ErrCodeInvalidParams indicates invalid method parameters.
	ErrCodeInvalidParams = -32602

	// ErrCodeInternalError indicates an internal JSON-RPC error.
	ErrCodeInternalError = -32603
)

// Proxy-specific error codes (-32001 to -32099).
const (
	// ErrCodeToolNotFound indicates no upstream server resolves the tool.
	ErrCodeToolNotFound = -32001

	// ErrCodeUpstreamUnreachable indicates the forward to the real server failed.
	ErrCodeUpstreamUnreachable = -32002

	// ErrCodeCacheMiss indicates replay found no exact or semantic match.
	ErrCodeCacheMiss = -32003
)

// Standard error messages.
var errorMessages = map[int]string{
	ErrCodeParseError:          "Parse error",
	ErrCodeInvalidRequest:      "Invalid request",
	ErrCodeMethodNotFound:      "Method not found",
	ErrCodeInvalidParams:       "Invalid params",
	ErrCodeInternalError:       "Internal error",
	ErrCodeToolNotFound:        "Tool not found",
	ErrCodeUpstreamUnreachable: "Upstream server unreachable",
	ErrCodeCacheMiss:           "No cached response matches this request",
}

// NewJSONRPCError creates a new JSON-RPC error with the given code.
func NewJSONRPCError(code int, data interface{}) *JSONRPCError {
	msg, ok := errorMessages[code]
	if !ok {
		msg = "Unknown error"
	}
	return &JSONRPCError{Code: code, Message: msg, Data: data}
}

// ParseError creates a parse error.
func ParseError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: ErrCodeParseError, Message: "Parse error: " + detail}
}

// InvalidRequestError creates an invalid request error.
func InvalidRequestError(detail string) *JSONRPCError {
	data := map[string]string{}
	if detail != "" {
		data["detail"] = detail
	}
	return NewJSONRPCError(ErrCodeInvalidRequest, data)
}

// MethodNotFoundError creates a method not found error.
func MethodNotFoundError(method string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeMethodNotFound, map[string]string{
		"method": method,
	})
}

// InternalError creates an internal error.
func InternalError(err error) *JSONRPCError {
	data := map[string]string{}
	if err != nil {
		data["detail"] = err.Error()
	}
	return NewJSONRPCError(ErrCodeInternalError, data)
}

// ToolNotFoundError creates an error for a tool no server resolves.
func ToolNotFoundError(toolName string) *JSONRPCError {
	return NewJSONRPCError(ErrCodeToolNotFound, map[string]string{
		"tool": toolName,
	})
}

// UpstreamUnreachableError creates an error for a failed upstream forward.
func UpstreamUnreachableError(server string, err error) *JSONRPCError {
	data := map[string]string{"server": server}
	if err != nil {
		data["detail"] = err.Error()
	}
	return NewJSONRPCError(ErrCodeUpstreamUnreachable, data)
}

// CacheMissError creates an error for a replay cache miss.
func CacheMissError(toolName string, bestScore float64) *JSONRPCError {
	return NewJSONRPCError(ErrCodeCacheMiss, map[string]interface{}{
		"tool":      toolName,
		"bestScore": bestScore,
	})
}

// Error implements the error interface for JSONRPCError.
func (e *JSONRPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// ErrorResponse creates a JSON-RPC error response.
func ErrorResponse(id interface{}, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   err,
	}
}

// SuccessResponse creates a JSON-RPC success response.
func SuccessResponse(id interface{}, result interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}
