package mcp

import "encoding/json"

// ParseRequestBytes parses a JSON-RPC request from bytes.
func ParseRequestBytes(data []byte) (*JSONRPCRequest, *JSONRPCError) {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ParseError(err.Error())
	}

	if rpcErr := ValidateRequest(&req); rpcErr != nil {
		return nil, rpcErr
	}
	return &req, nil
}

// ValidateRequest validates a JSON-RPC request.
func ValidateRequest(req *JSONRPCRequest) *JSONRPCError {
	if req.JSONRPC != "2.0" {
		return InvalidRequestError("jsonrpc must be \"2.0\"")
	}
	if req.Method == "" {
		return InvalidRequestError("method is required")
	}
	return nil
}

// ToolCall extracts tools/call params from a request. Returns nil for
// requests that are not tools/call or whose params do not decode.
func (r *JSONRPCRequest) ToolCall() *ToolCallParams {
	if r.Method != MethodToolsCall || len(r.Params) == 0 {
		return nil
	}
	var params ToolCallParams
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return nil
	}
	if params.Name == "" {
		return nil
	}
	return &params
}

// MarshalResponse marshals a JSON-RPC response to bytes.
func MarshalResponse(resp *JSONRPCResponse) ([]byte, error) {
	return json.Marshal(resp)
}
