package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry(memberDescriptor(), teamDescriptor())
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	d, ok := r.Lookup("Member")
	require.True(t, ok)
	assert.Equal(t, "member", d.Table)

	_, ok = r.Lookup("Hello")
	assert.False(t, ok)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Member", "Team"}, r.Names())
}

func TestRegistryAllKeepsRegistrationOrder(t *testing.T) {
	r, err := NewRegistry(teamDescriptor(), memberDescriptor())
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Team", all[0].Name)
	assert.Equal(t, "Member", all[1].Name)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(teamDescriptor(), teamDescriptor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestRegistryRejectsSharedTable(t *testing.T) {
	other := &Descriptor{Name: "Crew", Table: "team"}

	_, err := NewRegistry(teamDescriptor(), other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `share table "team"`)
}

func TestRegistryValidateDanglingRef(t *testing.T) {
	r, err := NewRegistry(memberDescriptor())
	require.NoError(t, err)

	err = r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Member.team references unknown entity "Team"`)
}

func TestRegistryZeroValue(t *testing.T) {
	var r Registry
	require.NoError(t, r.Register(teamDescriptor()))

	_, ok := r.Lookup("Team")
	assert.True(t, ok)
}
