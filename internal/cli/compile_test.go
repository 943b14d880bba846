package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile writes content to name inside a fresh temp dir.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCompileCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--schema", schemaDir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func compileJSON(t *testing.T, query string) CompilationResult {
	t.Helper()
	out, err := runCompileCmd(t, "json", writeFile(t, "query.yaml", query))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestCompileFetchModes(t *testing.T) {
	const columns = `SELECT "id", "username", "age", "team" FROM "member"`

	tests := []struct {
		name      string
		query     string
		wantFetch string
		wantSQL   string
		wantCount string
	}{
		{
			name:      "many",
			query:     "source: Member\n",
			wantFetch: "many",
			wantSQL:   columns,
		},
		{
			name:      "one adds limit 2",
			query:     "source: Member\nfetch: one\n",
			wantFetch: "exactly_one",
			wantSQL:   columns + " LIMIT 2",
		},
		{
			name:      "one_or_none adds limit 2",
			query:     "source: Member\nfetch: one_or_none\n",
			wantFetch: "one_or_none",
			wantSQL:   columns + " LIMIT 2",
		},
		{
			name:      "first adds limit 1",
			query:     "source: Member\nfetch: first\n",
			wantFetch: "first",
			wantSQL:   columns + " LIMIT 1",
		},
		{
			name:      "count",
			query:     "source: Member\nfetch: count\nlimit: 5\n",
			wantFetch: "count",
			wantSQL:   `SELECT COUNT(*) FROM "member"`,
		},
		{
			name:      "results",
			query:     "source: Member\nfetch: results\nlimit: 2\noffset: 1\n",
			wantFetch: "many_with_total_count",
			wantSQL:   columns + " LIMIT 2 OFFSET 1",
			wantCount: `SELECT COUNT(*) FROM "member"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := compileJSON(t, tt.query)
			assert.Equal(t, "Member", result.Source)
			assert.Equal(t, tt.wantFetch, result.Fetch)
			assert.Equal(t, tt.wantSQL, result.SQL)
			assert.Equal(t, tt.wantCount, result.CountSQL)
			assert.Empty(t, result.Params)
			assert.Len(t, result.Fingerprint, 64)
		})
	}
}

func TestCompileFilterAndOrder(t *testing.T) {
	result := compileJSON(t, `
source: Member
select: [username, age]
where:
  - {field: username, eq: member1}
  - {field: age, eq: 10}
  - {field: team, eq: null, optional: true}
order_by:
  - {field: age, dir: desc}
  - {field: username, nulls: last}
`)

	assert.Equal(t,
		`SELECT "username", "age" FROM "member" WHERE "username" = ? AND "age" = ? `+
			`ORDER BY "age" DESC, "username" ASC NULLS LAST, "id" ASC`,
		result.SQL)
	assert.Equal(t, []any{"member1", float64(10)}, result.Params)
	assert.Equal(t, "Member", result.Plan["source"])
	assert.Equal(t, []any{"username", "age"}, result.Plan["columns"])
}

func TestCompileFingerprintStable(t *testing.T) {
	a := compileJSON(t, "source: Member\nwhere:\n  - {field: age, eq: 10}\n")
	b := compileJSON(t, "where:\n  - {eq: 10, field: age}\nsource: Member\n")
	c := compileJSON(t, "source: Member\nwhere:\n  - {field: age, eq: 20}\n")

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestCompileTextOutput(t *testing.T) {
	out, err := runCompileCmd(t, "text", writeFile(t, "query.yaml", "source: Member\nfetch: results\nwhere:\n  - {field: age, eq: 10}\n"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled Member query (fetch: many_with_total_count)")
	assert.Contains(t, out, `SQL:         SELECT "id", "username", "age", "team" FROM "member" WHERE "age" = ?`)
	assert.Contains(t, out, "Params:      [10]")
	assert.Contains(t, out, `Count SQL:   SELECT COUNT(*) FROM "member" WHERE "age" = ?`)
	assert.Contains(t, out, "Fingerprint: ")
}

func TestCompileOutputToFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := runCompileCmd(t, "text", "--output", outFile, writeFile(t, "query.yaml", "source: Team\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled query to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, `SELECT "id", "name" FROM "team"`, result.SQL)
	assert.Equal(t, []any{}, result.Params)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"unknown field", "source: Member\nwhere:\n  - {field: email, eq: x}\n", "UNKNOWN_FIELD"},
		{"unknown entity", "source: Nobody\n", "INVALID_PLAN"},
		{"null filter", "source: Member\nwhere:\n  - {field: age, eq: null}\n", "INVALID_PLAN"},
		{"negative limit", "source: Member\nlimit: -1\n", "INVALID_PLAN"},
		{"unknown fetch", "source: Member\nfetch: some\n", "INVALID_PLAN"},
		{"unknown key", "source: Member\nlimt: 1\n", ErrCodeQueryFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCompileCmd(t, "json", writeFile(t, "query.yaml", tt.query))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestCompileMissingQueryFile(t *testing.T) {
	out, err := runCompileCmd(t, "text", "/nonexistent/query.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "[E009]")
}

func TestCompileMissingSchema(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--schema", "/nonexistent/schema", writeFile(t, "query.yaml", "source: Member\n")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "[E005]")
}

func TestCompileInvalidSchemaReportsPosition(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--schema", writeCUE(t, `entity: Member: fields: nick: "text"`), writeFile(t, "query.yaml", "source: Member\n")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E104", resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok, "details: %#v", resp.Error.Details)
	assert.Equal(t, float64(3), details["line"])
}

func TestFormatParams(t *testing.T) {
	assert.Equal(t, "[]", formatParams(nil))
	assert.Equal(t, `["a",1,null]`, formatParams([]any{"a", int64(1), nil}))
}
