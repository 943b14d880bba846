package store_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/testutil"
)

// randomOrder returns up to three order keys with random direction and
// null placement.
func randomOrder(rng *rand.Rand) []queryir.OrderKey {
	fields := []string{"username", "age", "team", "id"}
	rng.Shuffle(len(fields), func(i, j int) { fields[i], fields[j] = fields[j], fields[i] })

	keys := make([]queryir.OrderKey, rng.IntN(4))
	for i := range keys {
		k := queryir.Asc(fields[i])
		if rng.IntN(2) == 0 {
			k = queryir.Desc(fields[i])
		}
		switch rng.IntN(3) {
		case 1:
			k = k.NullsFirst()
		case 2:
			k = k.NullsLast()
		}
		keys[i] = k
	}
	return keys
}

func randomPlan(t *testing.T, rng *rand.Rand) *plan.Plan {
	b := plan.From(testutil.Member()).OrderBy(randomOrder(rng)...)
	for n := rng.IntN(3); n > 0; n-- {
		b.Where(randomPredicate(rng))
	}
	if rng.IntN(2) == 0 {
		b.Limit(rng.IntN(6))
	}
	if rng.IntN(2) == 0 {
		b.Offset(rng.IntN(6))
	}
	if rng.IntN(4) == 0 {
		b.Select(plan.Fields("username", "age"))
	}
	return build(t, b)
}

func TestSQLiteAndMemoryAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	ctx := context.Background()

	db := testutil.OpenSQLite(t)
	mem := testutil.NewMemory(t)
	member := testutil.Member()
	for i := 0; i < 30; i++ {
		row := randomMember(rng)
		testutil.Insert(t, db, member, row)
		testutil.Insert(t, mem, member, row)
	}

	for i := 0; i < 200; i++ {
		p := randomPlan(t, rng)

		want, err := db.Select(ctx, p)
		require.NoError(t, err)
		got, err := mem.Select(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, want, got, "plan %v", p.Describe())

		wantN, err := db.Count(ctx, p)
		require.NoError(t, err)
		gotN, err := mem.Count(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, wantN, gotN)
	}
}
