package queryfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/schema"
	"github.com/roach88/querykit/internal/store"
)

// Fixture lists rows to insert into one entity. Rows are inserted in order,
// so ids assigned by storage are predictable (1, 2, ... per table).
type Fixture struct {
	Entity string           `yaml:"entity"`
	Rows   []map[string]any `yaml:"rows"`
}

// fixtureFile is the top-level shape of a fixtures document.
type fixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// DecodeFixtures parses a fixtures document:
//
//	fixtures:
//	  - entity: Team
//	    rows:
//	      - {name: teamA}
//	  - entity: Member
//	    rows:
//	      - {username: member1, age: 10, team: 1}
func DecodeFixtures(r io.Reader) ([]Fixture, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f.Fixtures, nil
}

// LoadFixtures reads and parses a fixtures file.
func LoadFixtures(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	fixtures, err := DecodeFixtures(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fixtures, nil
}

// Apply inserts every fixture row and returns the number of rows stored.
// It stops at the first failure.
func Apply(ctx context.Context, reg *schema.Registry, ins store.Inserter, fixtures []Fixture) (int, error) {
	n := 0
	for _, f := range fixtures {
		desc, ok := reg.Lookup(f.Entity)
		if !ok {
			return n, fmt.Errorf("fixture: unknown entity %q", f.Entity)
		}
		for i, raw := range f.Rows {
			row, err := toRow(raw)
			if err != nil {
				return n, fmt.Errorf("fixture %s row %d: %w", f.Entity, i, err)
			}
			if _, err := ins.Insert(ctx, desc, row); err != nil {
				return n, fmt.Errorf("fixture %s row %d: %w", f.Entity, i, err)
			}
			n++
		}
	}
	return n, nil
}

func toRow(raw map[string]any) (ir.IRObject, error) {
	row := make(ir.IRObject, len(raw))
	for k, v := range raw {
		val, err := ir.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		row[k] = val
	}
	return row, nil
}
