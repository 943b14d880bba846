package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/querykit/internal/schema"
)

// LoadValue loads every CUE file in dir as one instance and builds it.
// Returns the built value and the number of .cue files found.
func LoadValue(dir string) (cue.Value, int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return cue.Value{}, 0, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return cue.Value{}, 0, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, 0, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return cue.Value{}, 0, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, len(files), fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, len(files), fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, len(files), formatCUEError(err)
	}
	return value, len(files), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// CompileRegistry compiles every entity.<Name> struct in v and validates the
// resulting registry. Stops at the first error.
func CompileRegistry(v cue.Value) (*schema.Registry, error) {
	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, fmt.Errorf("no entities found")
	}

	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	reg := &schema.Registry{}
	for iter.Next() {
		desc, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("entity.%s: %w", iter.Label(), err)
		}
		if errs := Validate(desc); len(errs) > 0 {
			return nil, fmt.Errorf("entity.%s: %w", iter.Label(), errs[0])
		}
		if err := reg.Register(desc); err != nil {
			return nil, err
		}
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadDir loads and compiles the entity definitions in dir.
func LoadDir(dir string) (*schema.Registry, error) {
	value, _, err := LoadValue(dir)
	if err != nil {
		return nil, err
	}
	return CompileRegistry(value)
}
