package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalArgsKeyOrder(t *testing.T) {
	a, err := CanonicalArgs([]byte(`{"b":2,"a":1}`))
	require.NoError(t, err)
	b, err := CanonicalArgs([]byte(`{"a":1,"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalArgsNestedKeyOrder(t *testing.T) {
	a, err := CanonicalArgs([]byte(`{"outer":{"y":2,"x":1}}`))
	require.NoError(t, err)
	b, err := CanonicalArgs([]byte(`{"outer":{"x":1,"y":2}}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalArgsWhitespaceCollapse(t *testing.T) {
	a, err := CanonicalArgs([]byte(`{"q":"  hello   world  "}`))
	require.NoError(t, err)
	b, err := CanonicalArgs([]byte(`{"q":"hello world"}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalArgsEmpty(t *testing.T) {
	c, err := CanonicalArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", c)
}

func TestCanonicalArgsInvalidJSON(t *testing.T) {
	_, err := CanonicalArgs([]byte(`{not json`))
	assert.Error(t, err)
}

func TestArgumentFields(t *testing.T) {
	fields, err := ArgumentFields([]byte(`{"a":1,"q":"hi   there"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "q": "hi there"}, fields)
}

func TestArgumentFieldsNonObject(t *testing.T) {
	fields, err := ArgumentFields([]byte(`[1,2,3]`))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Contains(t, fields, "")
}
