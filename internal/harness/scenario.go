package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/objsql/internal/dialect"
)

// Scenario defines a conformance test scenario.
// A scenario compiles the DDL of one or more schemas for a set of
// dialects, executes the SQLite rendition against an in-memory database,
// inserts setup rows, and asserts on the emitted SQL and the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE schema directories. Paths are relative to the
	// scenario file location.
	Specs []string `yaml:"specs"`

	// Dialects to compile for. Empty means every registered dialect.
	Dialects []string `yaml:"dialects,omitempty"`

	// Setup inserts rows after the schema is applied.
	Setup []InsertStep `yaml:"setup,omitempty"`

	// Assertions validate the emitted SQL and the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// InsertStep inserts one row of an entity.
type InsertStep struct {
	// Insert is the entity name (not the table name).
	Insert string `yaml:"insert"`

	// Values maps column names to YAML scalars. Flattened reference
	// columns use their column name, e.g. AddressId.
	Values map[string]any `yaml:"values"`

	// Fails marks a row the database must reject (constraint violation).
	Fails bool `yaml:"fails,omitempty"`
}

// Assertion validates the trace or the final database state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Dialect selects the statements checked by sql_contains,
	// sql_not_contains, statement_order and statement_count.
	// Empty means sqlite.
	Dialect string `yaml:"dialect,omitempty"`

	// Text is the substring for sql_contains and sql_not_contains.
	Text string `yaml:"text,omitempty"`

	// Table narrows sql_contains to one table's statements, and names the
	// table queried by row_count and final_state.
	Table string `yaml:"table,omitempty"`

	// Kind is the statement kind counted by statement_count.
	Kind string `yaml:"kind,omitempty"`

	// Tables is the expected creation order for statement_order.
	Tables []string `yaml:"tables,omitempty"`

	// Count is the expected number for statement_count and row_count.
	Count int `yaml:"count,omitempty"`

	// Where filters rows for row_count and final_state.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values for final_state (subset match).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLContains    = "sql_contains"
	AssertSQLNotContains = "sql_not_contains"
	AssertStatementOrder = "statement_order"
	AssertStatementCount = "statement_count"
	AssertRowCount       = "row_count"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Spec paths are
// resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario decodes scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// dialects returns the scenario's dialect names, defaulting to all.
func (s *Scenario) dialects() []string {
	if len(s.Dialects) == 0 {
		return dialect.Names()
	}
	return s.Dialects
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		info, err := os.Stat(specPath)
		if err != nil {
			return fmt.Errorf("spec directory not found: %s", specPath)
		}
		if !info.IsDir() {
			return fmt.Errorf("spec path is not a directory: %s", specPath)
		}
	}

	seen := make(map[string]bool)
	for _, name := range s.Dialects {
		if _, err := dialect.Lookup(name); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("dialect %q listed twice", name)
		}
		seen[name] = true
	}

	for i, step := range s.Setup {
		if step.Insert == "" {
			return fmt.Errorf("setup[%d]: insert is required", i)
		}
		if step.Values == nil {
			return fmt.Errorf("setup[%d]: values is required (use empty map for a row of defaults)", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Dialect != "" {
		if _, err := dialect.Lookup(a.Dialect); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertSQLContains, AssertSQLNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertStatementOrder:
		if len(a.Tables) == 0 {
			return fmt.Errorf("assertions[%d]: tables list is required for statement_order", index)
		}
	case AssertStatementCount:
		if !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: kind must be one of %s, %s, %s for statement_count",
				index, KindCreateTable, KindCreateIndex, KindInsert)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for statement_count", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validKind(k string) bool {
	switch k {
	case KindCreateTable, KindCreateIndex, KindInsert:
		return true
	}
	return false
}
