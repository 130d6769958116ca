package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentsString(t *testing.T) {
	a := Arguments{"s": "abc", "n": float64(42), "f": 1.5, "b": false, "null": nil}

	assert.Equal(t, "abc", a.String("s"))
	assert.Equal(t, "42", a.String("n"))
	assert.Equal(t, "1.5", a.String("f"))
	assert.Equal(t, "false", a.String("b"))
	assert.Equal(t, "", a.String("null"))
	assert.Equal(t, "", a.String("missing"))
	assert.Nil(t, a.OptString("null"))
	assert.Nil(t, a.OptString("missing"))
	require.NotNil(t, a.OptString("s"))
}

func TestArgumentsOptInt(t *testing.T) {
	a := Arguments{"f": float64(3), "s": " 7 ", "frac": 2.9, "bad": "x", "num": json.Number("12")}

	assert.Equal(t, 3, *a.OptInt("f"))
	assert.Equal(t, 7, *a.OptInt("s"))
	assert.Equal(t, 2, *a.OptInt("frac"))
	assert.Equal(t, 12, *a.OptInt("num"))
	assert.Nil(t, a.OptInt("bad"))
	assert.Nil(t, a.OptInt("missing"))

	zero := Arguments{"page": float64(0)}
	require.NotNil(t, zero.OptInt("page"))
	assert.Equal(t, 0, *zero.OptInt("page"))
}

func TestArgumentsOptBool(t *testing.T) {
	a := Arguments{"t": true, "f": false, "s": "true", "bad": "maybe", "n": float64(1)}

	assert.True(t, *a.OptBool("t"))
	assert.False(t, *a.OptBool("f"))
	assert.True(t, *a.OptBool("s"))
	assert.Nil(t, a.OptBool("bad"))
	assert.Nil(t, a.OptBool("n"))
	assert.Nil(t, a.OptBool("missing"))
}

func TestParseArguments(t *testing.T) {
	a, err := ParseArguments(json.RawMessage(`{"company_id":"C1","page":2}`))
	require.NoError(t, err)
	assert.Equal(t, "C1", a.String("company_id"))
	assert.Equal(t, 2, *a.OptInt("page"))

	empty, err := ParseArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	empty, err = ParseArguments(json.RawMessage("null"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseArguments(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestResultText(t *testing.T) {
	ok := Success(json.RawMessage(`{"a":1,"b":[true]}`))
	assert.False(t, ok.IsError())
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    true\n  ]\n}", ok.Text())

	fail := Failure("nope")
	assert.True(t, fail.IsError())
	assert.Equal(t, "Error: nope", fail.Text())

	assert.Equal(t, "null", Success(nil).Text())
}
