package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/store"
	"github.com/roach88/objsql/internal/testutil"
)

func applyOpts(root *RootOptions) *ApplyOptions {
	return &ApplyOptions{RootOptions: root, IDs: testutil.NewSequentialIDs("apply")}
}

func TestApplyCommand_CreatesTables(t *testing.T) {
	db := filepath.Join(t.TempDir(), "shop.db")

	out, _, err := executeSub(t, newApplyCommand(applyOpts(&RootOptions{Format: "text"})), shopSchema, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Applied 3 statement(s) to "+db)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	rows, err := st.Query(ctx, `SELECT name FROM sqlite_master WHERE type IN ('table', 'index') AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'objsql_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Customers", "IX_Orders_Placed", "Orders"}, names)

	migrations, err := st.Migrations(ctx)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Equal(t, "sqlite", migrations[0].Dialect)
	assert.Equal(t, "apply-4", migrations[0].CompileID)
}

func TestApplyCommand_Idempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "shop.db")

	_, _, err := executeSub(t, newApplyCommand(applyOpts(&RootOptions{Format: "text"})), shopSchema, "--db", db)
	require.NoError(t, err)

	out, _, err := executeSub(t, newApplyCommand(applyOpts(&RootOptions{Format: "json"})), shopSchema, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Data.Applied)
	assert.Equal(t, 3, resp.Data.Statements)
	require.Len(t, resp.Data.Migrations, 1)
	assert.Equal(t, resp.Data.Migration, resp.Data.Migrations[0].ID)
}

func TestApplyCommand_DatabaseFromConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "from-config.db")
	cfg := writeConfig(t, "database: "+db+"\n")

	out, _, err := execute(t, "--config", cfg, "apply", shopSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Applied 3 statement(s) to "+db)
}

func TestApplyCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     *RootOptions
		args     []string
		wantCode string
	}{
		{"no database", &RootOptions{Format: "text"}, []string{shopSchema}, ErrCodeConfig},
		{"other dialect", &RootOptions{Format: "text", Dialect: "postgres"}, []string{shopSchema, "--db", "x.db"}, ErrCodeConfig},
		{"missing schema", &RootOptions{Format: "text"}, []string{"testdata/schemas/nope", "--db", "x.db"}, ErrCodeNotFound},
		{"bad database path", &RootOptions{Format: "text"}, []string{shopSchema, "--db", "/nonexistent/dir/x.db"}, ErrCodeDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeSub(t, newApplyCommand(applyOpts(tt.opts)), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}
