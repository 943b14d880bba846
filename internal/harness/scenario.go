package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querykit/internal/engine"
	"github.com/roach88/querykit/internal/queryfile"
)

// Scenario defines a conformance test scenario: a schema, the rows to store
// and a sequence of queries with their expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the directory holding the CUE entity definitions.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// Fixtures are inserted, in order, into every store before the steps run.
	Fixtures []queryfile.Fixture `yaml:"fixtures,omitempty"`

	// Steps are executed in order against the same stored rows.
	Steps []Step `yaml:"steps"`

	// QueryID is the fixed query ID stamped on every execution.
	// If empty, defaults to "test-query-default".
	QueryID string `yaml:"query_id,omitempty"`
}

// Step is one query execution.
type Step struct {
	// Name labels the step in the trace and in failure messages.
	Name string `yaml:"name"`

	// Query is the query to plan and execute.
	Query queryfile.Query `yaml:"query"`

	// Expect specifies the expected outcome.
	// If nil, the step only has to succeed on every store.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the outcome of a step. Fields left unset are not checked.
type Expect struct {
	// Rows lists the returned rows exactly, in order. Single-row fetch
	// modes return zero or one row.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Column names one projected field; Values lists its value in every
	// returned row, in order. A null value stands for an empty field.
	Column string `yaml:"column,omitempty"`
	Values []any  `yaml:"values,omitempty"`

	// Count is the result of a count fetch.
	Count *int64 `yaml:"count,omitempty"`

	// Total is the total count of a results fetch.
	Total *int64 `yaml:"total,omitempty"`

	// Error is the expected QueryError code, e.g. NO_RESULT.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative schema
// directory is resolved against the scenario file location.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative schema directory against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) && basePath != "" {
		scenario.Schema = filepath.Join(basePath, scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema directory is required")
	}
	if info, err := os.Stat(s.Schema); err != nil || !info.IsDir() {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, f := range s.Fixtures {
		if f.Entity == "" {
			return fmt.Errorf("fixtures[%d]: entity is required", i)
		}
	}

	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if step.Query.Source == "" {
			return fmt.Errorf("steps[%d]: query.source is required", i)
		}
		c, err := step.Query.Cardinality()
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Expect != nil {
			if err := validateExpect(i, step, c); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateExpect rejects expectations that can never hold for the step's
// fetch mode.
func validateExpect(index int, step Step, c engine.Cardinality) error {
	e := step.Expect

	if e.Error != "" && (e.Rows != nil || e.Column != "" || e.Count != nil || e.Total != nil) {
		return fmt.Errorf("steps[%d].expect: error cannot be combined with other expectations", index)
	}
	if e.Rows != nil && e.Column != "" {
		return fmt.Errorf("steps[%d].expect: rows and column are mutually exclusive", index)
	}
	if (e.Column == "") != (e.Values == nil) {
		return fmt.Errorf("steps[%d].expect: column and values must be given together", index)
	}

	fetch := step.Query.Fetch
	if fetch == "" {
		fetch = queryfile.DefaultFetch
	}
	if c == engine.Count {
		if e.Rows != nil || e.Column != "" || e.Total != nil {
			return fmt.Errorf("steps[%d].expect: fetch %s returns only a count", index, fetch)
		}
	} else if e.Count != nil {
		return fmt.Errorf("steps[%d].expect: count needs fetch: count, got %s", index, fetch)
	}
	if e.Total != nil && c != engine.ManyWithTotalCount {
		return fmt.Errorf("steps[%d].expect: total needs fetch: results, got %s", index, fetch)
	}
	return nil
}
