package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcptap/mcptap/pkg/capture"
)

// DefaultThreshold is the minimum semantic score accepted as a match.
const DefaultThreshold = 0.85

// ErrNoMatch means no recorded call scored at or above the threshold.
var ErrNoMatch = errors.New("no matching recorded call")

// MissPolicy decides what the proxy does on a replay cache miss.
type MissPolicy string

// Cache-miss policies.
const (
	// MissError returns a JSON-RPC error to the client.
	MissError MissPolicy = "error"
	// MissPassthrough forwards the call to the live upstream.
	MissPassthrough MissPolicy = "passthrough"
	// MissMock returns a configured static payload.
	MissMock MissPolicy = "mock"
)

// IsValid checks if the policy is valid.
func (p MissPolicy) IsValid() bool {
	return p == MissError || p == MissPassthrough || p == MissMock
}

// Match is a successful lookup: the recorded call, its score and whether
// the exact pass found it.
type Match struct {
	Call  *capture.Call
	Score float64
	Exact bool
}

// candidate is one recorded call with its precomputed canonical forms.
type candidate struct {
	call   *capture.Call
	canon  string
	fields map[string]string
}

// Matcher finds recorded calls for incoming requests. It is built once
// from a loaded session and is read-only afterwards, so lookups need no
// locking.
type Matcher struct {
	threshold float64
	log       *slog.Logger
	byTool    map[string][]*candidate
	byMethod  map[string][]*capture.Call
}

// NewMatcher indexes a session's calls. Calls whose arguments fail to
// canonicalize are skipped with a warning. A threshold outside (0, 1]
// falls back to DefaultThreshold.
func NewMatcher(calls []*capture.Call, threshold float64, log *slog.Logger) *Matcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	m := &Matcher{
		threshold: threshold,
		log:       log,
		byTool:    make(map[string][]*candidate),
		byMethod:  make(map[string][]*capture.Call),
	}

	for _, call := range calls {
		if call.ToolName == "" {
			m.byMethod[call.Method] = append(m.byMethod[call.Method], call)
			continue
		}

		canon, err := CanonicalArgs(call.Arguments)
		if err != nil {
			log.Warn("skipping recorded call with bad arguments",
				"callId", call.ID, "tool", call.ToolName, "error", err)
			continue
		}
		fields, err := ArgumentFields(call.Arguments)
		if err != nil {
			log.Warn("skipping recorded call with bad arguments",
				"callId", call.ID, "tool", call.ToolName, "error", err)
			continue
		}

		m.byTool[call.ToolName] = append(m.byTool[call.ToolName], &candidate{
			call:   call,
			canon:  canon,
			fields: fields,
		})
	}
	return m
}

// Threshold returns the configured match threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// CallCount returns the number of indexed tool calls.
func (m *Matcher) CallCount() int {
	n := 0
	for _, cands := range m.byTool {
		n += len(cands)
	}
	return n
}

// Match finds the recorded call for a tool invocation. The exact pass
// compares canonical argument text and the first identical recording
// wins with score 1.0. The semantic pass scores every same-tool
// candidate and takes the best score at or above the threshold; equal
// scores go to the earliest recording. On a miss the best score seen is
// returned alongside ErrNoMatch.
func (m *Matcher) Match(toolName string, args json.RawMessage) (*Match, float64, error) {
	cands := m.byTool[toolName]
	if len(cands) == 0 {
		return nil, 0, fmt.Errorf("%w: tool %s never recorded", ErrNoMatch, toolName)
	}

	canon, err := CanonicalArgs(args)
	if err != nil {
		return nil, 0, err
	}

	for _, cand := range cands {
		if cand.canon == canon {
			return &Match{Call: cand.call, Score: 1.0, Exact: true}, 1.0, nil
		}
	}

	fields, err := ArgumentFields(args)
	if err != nil {
		return nil, 0, err
	}

	var best *candidate
	bestScore := 0.0
	for _, cand := range cands {
		score := argumentScore(fields, cand.fields)
		if score > bestScore {
			best, bestScore = cand, score
		}
	}

	if best == nil || bestScore < m.threshold {
		m.log.Debug("semantic match below threshold",
			"tool", toolName, "bestScore", bestScore, "threshold", m.threshold)
		return nil, bestScore, ErrNoMatch
	}

	m.log.Debug("semantic match accepted",
		"tool", toolName, "callId", best.call.ID, "score", bestScore)
	return &Match{Call: best.call, Score: bestScore}, bestScore, nil
}

// MatchMethod finds the earliest recorded call for a non-tool method,
// e.g. a replayed tools/list.
func (m *Matcher) MatchMethod(method string) (*capture.Call, error) {
	calls := m.byMethod[method]
	if len(calls) == 0 {
		return nil, fmt.Errorf("%w: method %s never recorded", ErrNoMatch, method)
	}
	return calls[0], nil
}
