package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueDecodesText(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`"hello"`), &v))
	assert.Equal(t, ValueText, v.Kind)
	assert.Equal(t, "hello", v.Text)
}

func TestValueDecodesNumber(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`42.5`), &v))
	assert.Equal(t, ValueNumber, v.Kind)
	assert.Equal(t, 42.5, v.Number)
}

func TestValueDecodesSelectionList(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`["opt_1","opt_2"]`), &v))
	assert.Equal(t, ValueSelection, v.Kind)
	assert.Equal(t, []string{"opt_1", "opt_2"}, v.Selection)
}

func TestValueDecodesTableRows(t *testing.T) {
	var v Value
	raw := `[{"attributeId":"a1","attributeName":"Weight","value":80}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	require.Equal(t, ValueTable, v.Kind)
	require.Len(t, v.Table, 1)
	assert.Equal(t, "a1", v.Table[0].AttributeID)
	require.NotNil(t, v.Table[0].Value)
	assert.Equal(t, ValueNumber, v.Table[0].Value.Kind)
	assert.Equal(t, 80.0, v.Table[0].Value.Number)
}

func TestValueDecodesFunctionExpression(t *testing.T) {
	var v Value
	raw := `{"type":"function","expression":"a1 + a2","dependencies":["a1","a2"]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	require.Equal(t, ValueFunction, v.Kind)
	assert.Equal(t, "a1 + a2", v.Function.Expression)
	assert.Equal(t, []string{"a1", "a2"}, v.Function.Dependencies)
}

func TestValueRejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{`true`, `{"foo":1}`, `[1,{}]`} {
		var v Value
		assert.Error(t, json.Unmarshal([]byte(raw), &v), raw)
	}
}

func TestValueNullIsEmpty(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.Equal(t, ValueEmpty, v.Kind)
}

func TestValueRoundTrip(t *testing.T) {
	for _, raw := range []string{
		`"free text"`,
		`7`,
		`["opt_1"]`,
		`[{"attributeId":"a1","value":"literal"}]`,
		`{"type":"function","expression":"a1*2","dependencies":["a1"]}`,
	} {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out), raw)
	}
}

func TestIDAcceptsNumberAndString(t *testing.T) {
	var id ID
	require.NoError(t, json.Unmarshal([]byte(`42`), &id))
	assert.Equal(t, ID(42), id)

	require.NoError(t, json.Unmarshal([]byte(`"42"`), &id))
	assert.Equal(t, ID(42), id)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &id))
}

func TestIdentifierAcceptsStringAndNumber(t *testing.T) {
	var ident Identifier
	require.NoError(t, json.Unmarshal([]byte(`"form_1_abc"`), &ident))
	assert.Equal(t, Identifier("form_1_abc"), ident)

	require.NoError(t, json.Unmarshal([]byte(`17`), &ident))
	assert.Equal(t, Identifier("17"), ident)
}
