// Package replay serves recorded calls back to clients.
//
// The matcher finds the recorded call for an incoming tool invocation:
// an exact pass over canonicalized arguments first, then a semantic pass
// that scores same-tool candidates by text similarity and accepts the
// best score at or above the threshold. The reconstructor then writes
// the recorded response to the client, re-emitting every SSE event for
// streamed calls and a single JSON-RPC body otherwise.
package replay
