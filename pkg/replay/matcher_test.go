package replay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptap/mcptap/pkg/capture"
)

func recordedCall(id, tool, args, result string) *capture.Call {
	c := &capture.Call{ID: id, Method: "tools/call", ToolName: tool, Result: json.RawMessage(result)}
	if args != "" {
		c.Arguments = json.RawMessage(args)
	}
	return c
}

func TestExactMatchIgnoresKeyOrderAndWhitespace(t *testing.T) {
	m := NewMatcher([]*capture.Call{
		recordedCall("c1", "calculator", `{"a":5,"b":3}`, `{"value":8}`),
	}, DefaultThreshold, nil)

	match, score, err := m.Match("calculator", json.RawMessage(`{ "b": 3, "a": 5 }`))
	require.NoError(t, err)
	assert.True(t, match.Exact)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, "c1", match.Call.ID)
}

func TestExactMatchFirstRecordingWins(t *testing.T) {
	m := NewMatcher([]*capture.Call{
		recordedCall("c1", "calculator", `{"a":5}`, `{"value":1}`),
		recordedCall("c2", "calculator", `{"a":5}`, `{"value":2}`),
	}, DefaultThreshold, nil)

	match, _, err := m.Match("calculator", json.RawMessage(`{"a":5}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", match.Call.ID)
}

func TestSemanticMatchNearIdenticalText(t *testing.T) {
	m := NewMatcher([]*capture.Call{
		recordedCall("c1", "search", `{"query":"what is the weather in San Francisco today"}`, `{"answer":"sunny"}`),
	}, DefaultThreshold, nil)

	match, score, err := m.Match("search", json.RawMessage(`{"query":"what is the weather in San Francisco todays"}`))
	require.NoError(t, err)
	assert.False(t, match.Exact)
	assert.GreaterOrEqual(t, score, DefaultThreshold)
	assert.Equal(t, "c1", match.Call.ID)
}

func TestSemanticMatchToleratesLocationQualifier(t *testing.T) {
	m := NewMatcher([]*capture.Call{
		recordedCall("c1", "get_weather", `{"location":"San Francisco, CA"}`, `{"forecast":"fog"}`),
	}, DefaultThreshold, nil)

	// The request drops the state qualifier; still a hit at the
	// default threshold.
	match, score, err := m.Match("get_weather", json.RawMessage(`{"location":"San Francisco"}`))
	require.NoError(t, err)
	assert.False(t, match.Exact)
	assert.GreaterOrEqual(t, score, DefaultThreshold)
	assert.Equal(t, "c1", match.Call.ID)

	// And the other direction: a qualified request against a bare
	// recording scores the same.
	m = NewMatcher([]*capture.Call{
		recordedCall("c2", "get_weather", `{"location":"San Francisco"}`, `{"forecast":"fog"}`),
	}, DefaultThreshold, nil)
	match, reverse, err := m.Match("get_weather", json.RawMessage(`{"location":"San Francisco, CA"}`))
	require.NoError(t, err)
	assert.InDelta(t, score, reverse, 1e-9)
	assert.Equal(t, "c2", match.Call.ID)
}

func TestSemanticMissUnrelatedText(t *testing.T) {
	m := NewMatcher([]*capture.Call{
		recordedCall("c1", "search", `{"query":"weather in San Francisco"}`, `{"answer":"sunny"}`),
	}, DefaultThreshold, nil)

	_, best, err := m.Match("search", json.RawMessage(`{"query":"recipe for chocolate cake"}`))
	require.ErrorIs(t, err, ErrNoMatch)
	assert.Less(t, best, DefaultThreshold)
}

func TestMatchUnknownTool(t *testing.T) {
	m := NewMatcher(nil, DefaultThreshold, nil)
	_, _, err := m.Match("ghost", nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestTieGoesToEarliestRecording(t *testing.T) {
	// Both candidates are equidistant from the request.
	m := NewMatcher([]*capture.Call{
		recordedCall("c1", "search", `{"query":"alpha beta gamma delta"}`, `{"n":1}`),
		recordedCall("c2", "search", `{"query":"alpha beta gamma delta"}`, `{"n":2}`),
	}, 0.5, nil)

	match, _, err := m.Match("search", json.RawMessage(`{"query":"alpha beta gamma epsilon"}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", match.Call.ID)
}

func TestThresholdBoundsFallBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewMatcher(nil, 0, nil).Threshold())
	assert.Equal(t, DefaultThreshold, NewMatcher(nil, 1.5, nil).Threshold())
	assert.Equal(t, 0.7, NewMatcher(nil, 0.7, nil).Threshold())
}

func TestMatchMethod(t *testing.T) {
	listResult := `{"tools":[{"name":"calculator"}]}`
	m := NewMatcher([]*capture.Call{
		{ID: "c1", Method: "tools/list", Result: json.RawMessage(listResult)},
	}, DefaultThreshold, nil)

	call, err := m.MatchMethod("tools/list")
	require.NoError(t, err)
	assert.Equal(t, "c1", call.ID)

	_, err = m.MatchMethod("resources/list")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestScoreProperties(t *testing.T) {
	texts := []string{"", "alpha", "alpha beta", "the quick brown fox"}
	for _, a := range texts {
		for _, b := range texts {
			s := fieldScore(a, b)
			assert.GreaterOrEqual(t, s, 0.0, "score(%q,%q)", a, b)
			assert.LessOrEqual(t, s, 1.0, "score(%q,%q)", a, b)
			// Symmetry.
			assert.InDelta(t, fieldScore(b, a), s, 1e-9, "score(%q,%q)", a, b)
		}
		// Reflexivity.
		assert.Equal(t, 1.0, fieldScore(a, a))
	}
}

func TestExtraFieldLowersScore(t *testing.T) {
	base := map[string]string{"a": "1", "b": "2"}
	extra := map[string]string{"a": "1", "b": "2", "c": "3"}

	assert.Equal(t, 1.0, argumentScore(base, base))
	assert.Less(t, argumentScore(base, extra), 1.0)
}
