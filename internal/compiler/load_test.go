package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tutorialSchema = `
package schema

entity: Hello: {}

entity: Team: {
	table: "team"
	fields: name: {type: "string"}
}

entity: Member: {
	table: "member"
	fields: {
		username: {type: "string", nullable: true}
		age:      {type: "int"}
		team:     {type: "ref", ref: "Team", nullable: true}
	}
}
`

func writeSchema(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeSchema(t, map[string]string{"entities.cue": tutorialSchema})

	reg, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", "Member", "Team"}, reg.Names())

	member, ok := reg.Lookup("Member")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "username", "age", "team"}, member.FieldNames())
}

func TestLoadDirMultipleFiles(t *testing.T) {
	dir := writeSchema(t, map[string]string{
		"team.cue":   "package schema\n\nentity: Team: fields: name: \"string\"\n",
		"member.cue": "package schema\n\nentity: Member: fields: team: {type: \"ref\", ref: \"Team\"}\n",
	})

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestLoadDirDanglingRef(t *testing.T) {
	dir := writeSchema(t, map[string]string{
		"member.cue": "package schema\n\nentity: Member: fields: team: {type: \"ref\", ref: \"Team\"}\n",
	})

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity")
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema directory")
	})

	t.Run("no cue files", func(t *testing.T) {
		_, err := LoadDir(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CUE files")
	})

	t.Run("no entities", func(t *testing.T) {
		dir := writeSchema(t, map[string]string{"x.cue": "package schema\n\nother: 1\n"})
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no entities")
	})

	t.Run("invalid field name", func(t *testing.T) {
		dir := writeSchema(t, map[string]string{"x.cue": "package schema\n\nentity: X: fields: \"bad name\": \"int\"\n"})
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrFieldNameInvalid)
	})
}

func TestFindCUEFiles(t *testing.T) {
	dir := writeSchema(t, map[string]string{
		"a.cue":  "package schema\n",
		"b.txt":  "ignored",
		"README": "ignored",
	})

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.cue", filepath.Base(files[0]))
}
