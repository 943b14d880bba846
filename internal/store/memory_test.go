package store_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/store"
	"github.com/roach88/querykit/internal/testutil"
)

func TestMatch(t *testing.T) {
	row := ir.IRObject{"username": ir.IRString("member1"), "age": ir.IRInt(10), "team": ir.IRNull{}}

	tests := []struct {
		name string
		pred queryir.Predicate
		want bool
	}{
		{"nil matches", nil, true},
		{"unbound matches", queryir.Unbound{}, true},
		{"equal", queryir.Eq("age", ir.IRInt(10)), true},
		{"not equal", queryir.Eq("age", ir.IRInt(11)), false},
		{"null column", queryir.Eq("team", ir.IRInt(1)), false},
		{"null literal", queryir.Eq("team", ir.IRNull{}), false},
		{"absent column", queryir.Eq("email", ir.IRString("x")), false},
		{"and both", queryir.And(queryir.Eq("age", ir.IRInt(10)), queryir.Eq("username", ir.IRString("member1"))), true},
		{"and one side", queryir.And(queryir.Eq("age", ir.IRInt(10)), queryir.Eq("username", ir.IRString("member2"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Match(tt.pred, row))
		})
	}
}

// randomMember returns a Member row drawn from small value sets so that
// collisions (and therefore ties and repeated matches) are common.
func randomMember(rng *rand.Rand) ir.IRObject {
	names := []string{"", "a", "b", "c"}
	return testutil.MemberRow(names[rng.IntN(len(names))], int64(rng.IntN(3)+1), int64(rng.IntN(3)))
}

// randomPredicate returns a non-null equality on one Member field.
func randomPredicate(rng *rand.Rand) queryir.Predicate {
	q := testutil.QMember
	switch rng.IntN(3) {
	case 0:
		return q.Username.Eq([]string{"a", "b", "c"}[rng.IntN(3)])
	case 1:
		return q.Age.Eq(int64(rng.IntN(3) + 1))
	default:
		return q.Team.Eq(int64(rng.IntN(2) + 1))
	}
}

func TestAndMatchesIntersection(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		row := randomMember(rng)
		p, q := randomPredicate(rng), randomPredicate(rng)

		want := store.Match(p, row) && store.Match(q, row)
		assert.Equal(t, want, store.Match(queryir.And(p, q), row), "row=%v p=%v q=%v", row, p, q)
		assert.Equal(t, want, store.Match(p.And(q), row))
	}
}

func TestAndSelectsIntersection(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	ctx := context.Background()
	m := testutil.NewMemory(t)
	member := testutil.Member()
	for i := 0; i < 40; i++ {
		testutil.Insert(t, m, member, randomMember(rng))
	}

	ids := func(pred queryir.Predicate) map[ir.IRValue]bool {
		rows, err := m.Select(ctx, build(t, plan.From(member).Where(pred)))
		require.NoError(t, err)
		out := make(map[ir.IRValue]bool, len(rows))
		for _, r := range rows {
			out[r["id"]] = true
		}
		return out
	}

	for i := 0; i < 50; i++ {
		p, q := randomPredicate(rng), randomPredicate(rng)
		left, right := ids(p), ids(q)

		want := map[ir.IRValue]bool{}
		for id := range left {
			if right[id] {
				want[id] = true
			}
		}
		assert.Equal(t, want, ids(queryir.And(p, q)))
	}
}

func TestMemoryEnsureTablesKeepsRows(t *testing.T) {
	m := testutil.NewMemory(t)
	testutil.Insert(t, m, testutil.Team(), ir.IRObject{"name": ir.IRString("teamA")})

	require.NoError(t, m.EnsureTables(context.Background(), testutil.Registry(t)))

	n, err := m.Count(context.Background(), build(t, plan.From(testutil.Team())))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryRowsAreIsolated(t *testing.T) {
	m := testutil.NewMemory(t)
	row := ir.IRObject{"name": ir.IRString("teamA")}
	testutil.Insert(t, m, testutil.Team(), row)
	row["name"] = ir.IRString("changed")

	p := build(t, plan.From(testutil.Team()))
	rows, err := m.Select(context.Background(), p)
	require.NoError(t, err)
	rows[0]["name"] = ir.IRString("mutated")

	rows, err = m.Select(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("teamA"), rows[0]["name"])
}
