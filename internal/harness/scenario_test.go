package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a schemas/people copy of the
// testdata schema and returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	schemaDir := filepath.Join(dir, "schemas", "people")
	require.NoError(t, os.MkdirAll(schemaDir, 0755))
	src, err := os.ReadFile("testdata/schemas/people/people.cue")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "people.cue"), src, 0644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
specs:
  - schemas/people
dialects: [sqlite, postgres]
setup:
  - insert: Person
    values: { Name: Ada }
  - insert: Person
    values: { Name: Bob, AddressId: 7 }
    fails: true
assertions:
  - type: sql_contains
    dialect: postgres
    text: BIGSERIAL
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "schemas/people")}, scenario.Specs)
	assert.Equal(t, []string{"sqlite", "postgres"}, scenario.dialects())
	require.Len(t, scenario.Setup, 2)
	assert.Equal(t, "Ada", scenario.Setup[0].Values["Name"])
	assert.Equal(t, 7, scenario.Setup[1].Values["AddressId"])
	assert.True(t, scenario.Setup[1].Fails)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertSQLContains, scenario.Assertions[0].Type)
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Misspelled assertions key"
specs: [schemas/people]
assertion:
  - type: row_count
    table: People
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	path := writeScenario(t, `
name: based
description: "Specs resolve against the given base"
specs: [people]
assertions:
  - type: statement_count
    kind: create_table
    count: 2
`)

	scenario, err := LoadScenarioWithBasePath(path, filepath.Join(filepath.Dir(path), "schemas"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "schemas", "people"), scenario.Specs[0])
	assert.Len(t, scenario.dialects(), 5, "empty dialects means every registered dialect")
}

func TestParseScenario_Validation(t *testing.T) {
	base := `
name: v
description: d
specs: [schemas/people]
`
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nspecs: [schemas/people]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nspecs: [schemas/people]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing specs",
			content: "name: n\ndescription: d\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "specs list is required",
		},
		{
			name:    "missing assertions",
			content: base,
			wantErr: "assertions list is required",
		},
		{
			name:    "spec not found",
			content: "name: n\ndescription: d\nspecs: [schemas/nope]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "spec directory not found",
		},
		{
			name:    "spec is a file",
			content: "name: n\ndescription: d\nspecs: [schemas/people/people.cue]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "spec path is not a directory",
		},
		{
			name:    "unknown dialect",
			content: base + "dialects: [oracle]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "unknown dialect",
		},
		{
			name:    "duplicate dialect",
			content: base + "dialects: [sqlite, sqlite]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "listed twice",
		},
		{
			name:    "setup without entity",
			content: base + "setup: [{values: {}}]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "setup[0]: insert is required",
		},
		{
			name:    "setup without values",
			content: base + "setup: [{insert: Person}]\nassertions: [{type: row_count, table: T}]\n",
			wantErr: "setup[0]: values is required",
		},
		{
			name:    "assertion without type",
			content: base + "assertions: [{table: T}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion type",
			content: base + "assertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "sql_contains without text",
			content: base + "assertions: [{type: sql_contains}]\n",
			wantErr: "text is required for sql_contains",
		},
		{
			name:    "assertion dialect unknown",
			content: base + "assertions: [{type: sql_contains, dialect: db2, text: x}]\n",
			wantErr: "assertions[0]: unknown dialect",
		},
		{
			name:    "statement_order without tables",
			content: base + "assertions: [{type: statement_order}]\n",
			wantErr: "tables list is required",
		},
		{
			name:    "statement_count bad kind",
			content: base + "assertions: [{type: statement_count, kind: drop_table}]\n",
			wantErr: "kind must be one of",
		},
		{
			name:    "row_count without table",
			content: base + "assertions: [{type: row_count, count: 1}]\n",
			wantErr: "table is required for row_count",
		},
		{
			name:    "row_count negative",
			content: base + "assertions: [{type: row_count, table: T, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "final_state without expect",
			content: base + "assertions: [{type: final_state, table: T}]\n",
			wantErr: "expect is required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
