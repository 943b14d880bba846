// Package testutil holds shared test fixtures: the tutorial entities
// (Hello, Team, Member), typed field paths for them and seeding helpers that
// work against any store.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/schema"
	"github.com/roach88/querykit/internal/store"
)

// Hello returns the descriptor of the field-less smoke-test entity.
func Hello() *schema.Descriptor {
	return &schema.Descriptor{Name: "Hello", Table: "hello"}
}

// Team returns the Team descriptor.
func Team() *schema.Descriptor {
	return &schema.Descriptor{
		Name:   "Team",
		Table:  "team",
		Fields: []schema.Field{{Name: "name", Type: schema.TypeString}},
	}
}

// Member returns the Member descriptor. username is nullable so the
// null-ordering fixtures can store an unnamed member.
func Member() *schema.Descriptor {
	return &schema.Descriptor{
		Name:  "Member",
		Table: "member",
		Fields: []schema.Field{
			{Name: "username", Type: schema.TypeString, Nullable: true},
			{Name: "age", Type: schema.TypeInt},
			{Name: "team", Type: schema.TypeRef, Ref: "Team", Nullable: true},
		},
	}
}

// Registry returns a validated registry holding Hello, Team and Member.
func Registry(t testing.TB) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(Hello(), Team(), Member())
	require.NoError(t, err)
	require.NoError(t, reg.Validate())
	return reg
}

// QMember holds typed paths for Member fields.
var QMember = struct {
	ID       queryir.IntPath
	Username queryir.StringPath
	Age      queryir.IntPath
	Team     queryir.RefPath
}{
	ID:       queryir.IntPath{Name: "id"},
	Username: queryir.StringPath{Name: "username"},
	Age:      queryir.IntPath{Name: "age"},
	Team:     queryir.RefPath{Name: "team"},
}

// QTeam holds typed paths for Team fields.
var QTeam = struct {
	ID   queryir.IntPath
	Name queryir.StringPath
}{
	ID:   queryir.IntPath{Name: "id"},
	Name: queryir.StringPath{Name: "name"},
}

// OpenSQLite opens an in-memory SQLite database with the tutorial tables.
// The database is closed when the test ends.
func OpenSQLite(t testing.TB) *store.SQLite {
	t.Helper()
	return OpenSQLiteDriver(t, store.DriverCGO)
}

// OpenSQLiteDriver is OpenSQLite on the given database/sql driver.
func OpenSQLiteDriver(t testing.TB, driver string) *store.SQLite {
	t.Helper()
	db, err := store.Open(context.Background(), store.Config{Driver: driver, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureTables(context.Background(), Registry(t)))
	return db
}

// NewMemory returns an in-memory store with the tutorial tables.
func NewMemory(t testing.TB) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	require.NoError(t, m.EnsureTables(context.Background(), Registry(t)))
	return m
}

// Insert stores row and returns its id, failing the test on error.
func Insert(t testing.TB, s store.Inserter, desc *schema.Descriptor, row ir.IRObject) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), desc, row)
	require.NoError(t, err)
	return id
}

// Name returns an IRString, or IRNull for an empty name.
func Name(s string) ir.IRValue {
	if s == "" {
		return ir.IRNull{}
	}
	return ir.IRString(s)
}

// MemberRow builds a Member row. An empty username is stored as null and a
// zero team id as no team.
func MemberRow(username string, age int64, team int64) ir.IRObject {
	row := ir.IRObject{"username": Name(username), "age": ir.IRInt(age)}
	if team != 0 {
		row["team"] = ir.IRInt(team)
	}
	return row
}

// Tutorial holds the ids assigned by SeedTutorial.
type Tutorial struct {
	TeamA, TeamB int64
	Members      []int64
}

// SeedTutorial stores teamA and teamB plus member1..member4 aged 10..40,
// the first two in teamA and the rest in teamB.
func SeedTutorial(t testing.TB, s store.Inserter) Tutorial {
	t.Helper()
	team, member := Team(), Member()

	var out Tutorial
	out.TeamA = Insert(t, s, team, ir.IRObject{"name": ir.IRString("teamA")})
	out.TeamB = Insert(t, s, team, ir.IRObject{"name": ir.IRString("teamB")})

	out.Members = []int64{
		Insert(t, s, member, MemberRow("member1", 10, out.TeamA)),
		Insert(t, s, member, MemberRow("member2", 20, out.TeamA)),
		Insert(t, s, member, MemberRow("member3", 30, out.TeamB)),
		Insert(t, s, member, MemberRow("member4", 40, out.TeamB)),
	}
	return out
}

// SeedSortFixture stores three members aged 100: one without a username,
// then member5 and member6.
func SeedSortFixture(t testing.TB, s store.Inserter) []int64 {
	t.Helper()
	member := Member()
	return []int64{
		Insert(t, s, member, MemberRow("", 100, 0)),
		Insert(t, s, member, MemberRow("member5", 100, 0)),
		Insert(t, s, member, MemberRow("member6", 100, 0)),
	}
}

// Usernames extracts the username column, nil for empty values.
func Usernames(rows []ir.IRObject) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = ir.ToAny(r.Get("username"))
	}
	return out
}
