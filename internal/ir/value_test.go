package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("member1")
	var _ IRValue = IRInt(10)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"username": IRString("member1")}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(IRNull{}))
	assert.False(t, IsNull(IRString("")))
	assert.False(t, IsNull(IRInt(0)))
	assert.False(t, IsNull(IRBool(false)))
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		value IRValue
		want  string
	}{
		{IRNull{}, "null"},
		{nil, "null"},
		{IRString("x"), "string"},
		{IRInt(1), "int"},
		{IRBool(true), "bool"},
		{IRArray{}, "array"},
		{IRObject{}, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeName(tt.value))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(IRString("a"), IRString("a")))
	assert.False(t, Equal(IRString("a"), IRString("b")))
	assert.False(t, Equal(IRString("1"), IRInt(1)))
	assert.True(t, Equal(IRNull{}, nil))
	assert.False(t, Equal(IRNull{}, IRInt(0)))
	assert.True(t, Equal(
		IRObject{"a": IRArray{IRInt(1), IRBool(true)}},
		IRObject{"a": IRArray{IRInt(1), IRBool(true)}},
	))
	assert.False(t, Equal(
		IRObject{"a": IRInt(1)},
		IRObject{"a": IRInt(1), "b": IRInt(2)},
	))
}

func TestIRObjectGet(t *testing.T) {
	row := IRObject{"username": IRString("member1"), "team": nil}

	assert.Equal(t, IRString("member1"), row.Get("username"))
	assert.Equal(t, IRNull{}, row.Get("team"))
	assert.Equal(t, IRNull{}, row.Get("missing"))
}

func TestIRObjectClone(t *testing.T) {
	row := IRObject{"age": IRInt(10)}
	clone := row.Clone()
	clone["age"] = IRInt(20)

	assert.Equal(t, IRInt(10), row["age"])
	assert.Nil(t, IRObject(nil).Clone())
}

func TestSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"Aa": IRInt(4),
	}

	assert.Equal(t, []string{"A", "Aa", "a", "aa"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	// U+E000 sorts after the surrogate pair for U+10000 in UTF-16.
	assert.Equal(t, 1, compareKeysRFC8785("\ue000", "\U00010000"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
	assert.Equal(t, 0, compareKeysRFC8785("team", "team"))
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "member5", IRString("member5")},
		{"int", 100, IRInt(100)},
		{"int64", int64(-3), IRInt(-3)},
		{"uint8", uint8(7), IRInt(7)},
		{"bool", true, IRBool(true)},
		{"integral float", float64(40), IRInt(40)},
		{"json number", json.Number("12"), IRInt(12)},
		{"ir passthrough", IRString("x"), IRString("x")},
		{"slice", []any{1, "a"}, IRArray{IRInt(1), IRString("a")}},
		{"map", map[string]any{"age": 10}, IRObject{"age": IRInt(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyRejectsFractions(t *testing.T) {
	_, err := FromAny(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")

	_, err = FromAny(json.Number("1.5"))
	require.Error(t, err)

	_, err = FromAny(struct{}{})
	require.Error(t, err)
}

func TestToAny(t *testing.T) {
	assert.Nil(t, ToAny(IRNull{}))
	assert.Equal(t, "a", ToAny(IRString("a")))
	assert.Equal(t, int64(5), ToAny(IRInt(5)))
	assert.Equal(t, true, ToAny(IRBool(true)))
	assert.Equal(t, map[string]any{"x": []any{int64(1), nil}},
		ToAny(IRObject{"x": IRArray{IRInt(1), IRNull{}}}))
}

func TestUnmarshalIRValue(t *testing.T) {
	val, err := UnmarshalIRValue([]byte(`{"username":null,"age":10,"tags":["a"],"active":true}`))
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"username": IRNull{},
		"age":      IRInt(10),
		"tags":     IRArray{IRString("a")},
		"active":   IRBool(true),
	}, val)
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	for _, input := range []string{`1.5`, `1e3`, `{"a":2.0}`, `[1.0]`} {
		t.Run(input, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "floats")
		})
	}
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	row := IRObject{
		"username": IRString("member1"),
		"age":      IRInt(10),
		"team":     IRNull{},
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"age":10,"team":null,"username":"member1"}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, Equal(row, decoded))
}
