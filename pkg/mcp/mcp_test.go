package mcp

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRequestValid(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"calculator","arguments":{"a":5,"b":3}}}`

	req, rpcErr := ParseRequestBytes([]byte(body))
	if rpcErr != nil {
		t.Fatalf("unexpected error: %v", rpcErr)
	}
	if req.Method != MethodToolsCall {
		t.Errorf("expected tools/call, got %s", req.Method)
	}
	if req.ID == nil {
		t.Error("expected request id to survive parsing")
	}
}

func TestParseRequestInvalidJSON(t *testing.T) {
	_, rpcErr := ParseRequestBytes([]byte(`{not json`))
	if rpcErr == nil {
		t.Fatal("expected parse error")
	}
	if rpcErr.Code != ErrCodeParseError {
		t.Errorf("expected code %d, got %d", ErrCodeParseError, rpcErr.Code)
	}
}

func TestParseRequestWrongVersion(t *testing.T) {
	_, rpcErr := ParseRequestBytes([]byte(`{"jsonrpc":"1.0","id":1,"method":"x"}`))
	if rpcErr == nil || rpcErr.Code != ErrCodeInvalidRequest {
		t.Fatalf("expected invalid request error, got %v", rpcErr)
	}
}

func TestParseRequestMissingMethod(t *testing.T) {
	_, rpcErr := ParseRequestBytes([]byte(`{"jsonrpc":"2.0","id":1}`))
	if rpcErr == nil || rpcErr.Code != ErrCodeInvalidRequest {
		t.Fatalf("expected invalid request error, got %v", rpcErr)
	}
}

func TestToolCallExtraction(t *testing.T) {
	req, _ := ParseRequestBytes([]byte(`{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"weather","arguments":{"location":"Oslo"}}}`))

	call := req.ToolCall()
	if call == nil {
		t.Fatal("expected tool call params")
	}
	if call.Name != "weather" {
		t.Errorf("expected weather, got %s", call.Name)
	}
	var args map[string]interface{}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		t.Fatalf("arguments not valid JSON: %v", err)
	}
	if args["location"] != "Oslo" {
		t.Errorf("unexpected arguments: %v", args)
	}
}

func TestToolCallNonToolMethod(t *testing.T) {
	req, _ := ParseRequestBytes([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	if req.ToolCall() != nil {
		t.Error("tools/list should not yield tool call params")
	}
}

func TestErrorResponseShape(t *testing.T) {
	resp := ErrorResponse("req-1", ToolNotFoundError("missing_tool"))

	data, err := MarshalResponse(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["jsonrpc"] != "2.0" {
		t.Error("missing jsonrpc version")
	}
	errObj, ok := decoded["error"].(map[string]interface{})
	if !ok {
		t.Fatal("missing error object")
	}
	if int(errObj["code"].(float64)) != ErrCodeToolNotFound {
		t.Errorf("unexpected code: %v", errObj["code"])
	}
}

func TestJSONRPCErrorImplementsError(t *testing.T) {
	var err error = UpstreamUnreachableError("weather-server", nil)
	if !strings.Contains(err.Error(), "Upstream server unreachable") {
		t.Errorf("unexpected error text: %s", err.Error())
	}
}

func TestSuccessResponse(t *testing.T) {
	resp := SuccessResponse(7, map[string]int{"value": 8})
	if resp.Error != nil {
		t.Error("success response must not carry an error")
	}
	if resp.ID != 7 {
		t.Errorf("expected id 7, got %v", resp.ID)
	}
}
