package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/queryir"
)

func buildSortPlan(t *testing.T) *Plan {
	t.Helper()
	p, err := SelectFrom(member).
		Where(age.Eq(100)).
		OrderBy(age.Desc(), username.Asc().NullsLast()).
		Limit(10).
		Offset(2).
		Build()
	require.NoError(t, err)
	return p
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := buildSortPlan(t)

	cols := p.Columns()
	cols[0] = "mutated"
	order := p.Order()
	order[0] = queryir.Asc("mutated")

	assert.Equal(t, "id", p.Columns()[0])
	assert.Equal(t, "age", p.Order()[0].Field)
}

func TestCountForm(t *testing.T) {
	p := buildSortPlan(t)
	count := p.CountForm()

	assert.Same(t, p.Source(), count.Source())
	assert.Equal(t, p.Filter(), count.Filter())
	assert.Empty(t, count.Order())
	assert.Empty(t, count.Columns())
	_, hasLimit := count.Limit()
	assert.False(t, hasLimit)
	assert.Equal(t, 0, count.Offset())

	// original untouched
	limit, _ := p.Limit()
	assert.Equal(t, 10, limit)
}

func TestWithLimit(t *testing.T) {
	p := buildSortPlan(t)

	two := p.WithLimit(2)
	limit, ok := two.Limit()
	assert.True(t, ok)
	assert.Equal(t, 2, limit)
	assert.Equal(t, 2, two.Offset())
	assert.Equal(t, p.Order(), two.Order())

	limit, _ = p.Limit()
	assert.Equal(t, 10, limit, "original plan is unchanged")

	unlimited, err := SelectFrom(member).Build()
	require.NoError(t, err)
	limit, ok = unlimited.WithLimit(1).Limit()
	assert.True(t, ok)
	assert.Equal(t, 1, limit)
}

func TestWithLimitKeepsSmallerLimit(t *testing.T) {
	p, err := SelectFrom(member).Limit(1).Build()
	require.NoError(t, err)

	limit, _ := p.WithLimit(2).Limit()
	assert.Equal(t, 1, limit)
}

func TestFingerprintStable(t *testing.T) {
	a := buildSortPlan(t)
	b := buildSortPlan(t)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestFingerprintDistinguishesPlans(t *testing.T) {
	base := buildSortPlan(t)

	others := []*Plan{
		base.WithLimit(1),
		base.CountForm(),
	}

	p, err := SelectFrom(member).Where(age.Eq(100)).OrderBy(age.Desc(), username.Asc()).Limit(10).Offset(2).Build()
	require.NoError(t, err)
	others = append(others, p)

	for _, other := range others {
		assert.NotEqual(t, base.Fingerprint(), other.Fingerprint())
	}
}

func TestDescribe(t *testing.T) {
	p, err := From(member).Select(Fields("username")).Where(age.Eq(10)).Build()
	require.NoError(t, err)

	data, err := ir.MarshalCanonical(p.Describe())
	require.NoError(t, err)
	assert.Equal(t,
		`{"columns":["username"],"filter":{"eq":"age","value":10},"limit":null,"offset":0,"order":[],"source":"Member"}`,
		string(data))
}
