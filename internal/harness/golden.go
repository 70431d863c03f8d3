package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a trace as reviewable text: a header line per
// statement followed by its SQL.
//
//	-- sqlite create_table People
//	CREATE TABLE "People"
//	...
//	-- sqlite insert People ["Ada" 1]
//	INSERT INTO "People"("Name", "AddressId") VALUES(?, ?)
func Snapshot(name string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", name)
	for _, ev := range trace {
		fmt.Fprintf(&b, "\n-- %s %s %s", ev.Dialect, ev.Kind, ev.Table)
		if len(ev.Params) > 0 {
			fmt.Fprintf(&b, " %s", formatParams(ev.Params))
		}
		if ev.Error != "" {
			b.WriteString(" (rejected)")
		}
		b.WriteString("\n")
		b.WriteString(ev.SQL)
		b.WriteString(";\n")
	}
	return []byte(b.String())
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		case nil:
			parts[i] = "NULL"
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result.Trace))
}
