package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/ir"
)

// TestSealedInterfaces verifies only package types implement Predicate.
func TestSealedInterfaces(t *testing.T) {
	var _ Predicate = Equals{}
	var _ Predicate = Conjunction{}
	var _ Predicate = Unbound{}
}

func TestEqBuildsEquals(t *testing.T) {
	p := Eq("username", ir.IRString("member1"))

	eq, ok := p.(Equals)
	require.True(t, ok)
	assert.Equal(t, "username", eq.Field)
	assert.Equal(t, ir.IRString("member1"), eq.Value)
}

func TestAndIsBinary(t *testing.T) {
	left := Eq("username", ir.IRString("member1"))
	right := Eq("age", ir.IRInt(10))

	assert.Equal(t, Conjunction{Left: left, Right: right}, And(left, right))
	assert.Equal(t, And(left, right), left.And(right))
}

func TestAndDropsNilOperand(t *testing.T) {
	age := Eq("age", ir.IRInt(10))

	tests := []struct {
		name string
		got  Predicate
		want Predicate
	}{
		{"nil right", And(age, nil), age},
		{"nil left", And(nil, age), age},
		{"both nil", And(nil, nil), nil},
		{"method form", age.And(nil), age},
		{"chained", Eq("username", ir.IRString("member1")).And(nil).And(age), And(Eq("username", ir.IRString("member1")), age)},
		{"all with nil", All(age, nil), age},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestAndDoesNotMutateOperands(t *testing.T) {
	left := Eq("age", ir.IRInt(10))
	_ = And(left, Eq("age", ir.IRInt(20)))

	assert.Equal(t, Equals{Field: "age", Value: ir.IRInt(10)}, left)
}

func TestAllLeftFolds(t *testing.T) {
	a := Eq("a", ir.IRInt(1))
	b := Eq("b", ir.IRInt(2))
	c := Eq("c", ir.IRInt(3))

	assert.Equal(t, Unbound{}, All())
	assert.Equal(t, a, All(a))
	assert.Equal(t, And(And(a, b), c), All(a, b, c))
}

func TestMethodChaining(t *testing.T) {
	p := Eq("a", ir.IRInt(1)).And(Eq("b", ir.IRInt(2))).And(Unbound{})

	assert.Equal(t, And(And(Eq("a", ir.IRInt(1)), Eq("b", ir.IRInt(2))), Unbound{}), p)
	assert.Equal(t, And(Unbound{}, Eq("a", ir.IRInt(1))), Unbound{}.And(Eq("a", ir.IRInt(1))))
}

func TestIsUnbound(t *testing.T) {
	assert.True(t, IsUnbound(Unbound{}))
	assert.True(t, IsUnbound(And(Unbound{}, Unbound{})))
	assert.False(t, IsUnbound(And(Unbound{}, Eq("a", ir.IRInt(1)))))
	assert.False(t, IsUnbound(nil))
}

func TestFields(t *testing.T) {
	p := All(
		Eq("username", ir.IRString("x")),
		Eq("age", ir.IRInt(1)),
		Eq("username", ir.IRString("y")),
		Unbound{},
	)

	assert.Equal(t, []string{"username", "age"}, Fields(p))
	assert.Empty(t, Fields(Unbound{}))
}

func TestDescribeIsCanonical(t *testing.T) {
	p := And(Eq("username", ir.IRString("member1")), Eq("age", ir.IRInt(10)))

	data, err := ir.MarshalCanonical(Describe(p))
	require.NoError(t, err)
	assert.Equal(t,
		`{"and":[{"eq":"username","value":"member1"},{"eq":"age","value":10}]}`,
		string(data))

	data, err = ir.MarshalCanonical(Describe(Unbound{}))
	require.NoError(t, err)
	assert.Equal(t, `{"unbound":true}`, string(data))
}
