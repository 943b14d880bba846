package store

import (
	"context"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/schema"
)

// Inserter adds rows to an entity's table and returns the row id.
type Inserter interface {
	Insert(ctx context.Context, desc *schema.Descriptor, row ir.IRObject) (int64, error)
}

// prepareRow validates row against desc and returns a normalised copy
// holding every declared field (IRNull where absent). The id is kept only
// when the caller supplied one.
func prepareRow(desc *schema.Descriptor, row ir.IRObject) (ir.IRObject, error) {
	if desc == nil {
		return nil, fmt.Errorf("insert: nil descriptor")
	}

	for name := range row {
		if _, ok := desc.Field(name); !ok {
			return nil, fmt.Errorf("insert %s: %w: %s", desc.Name, schema.ErrUnknownField, name)
		}
	}

	out := make(ir.IRObject, len(desc.Fields)+1)
	if id, ok := row[schema.IDField]; ok && !ir.IsNull(id) {
		if err := desc.Accepts(schema.IDField, id); err != nil {
			return nil, fmt.Errorf("insert %s: %w", desc.Name, err)
		}
		out[schema.IDField] = id
	}

	for _, f := range desc.Fields {
		v := row.Get(f.Name)
		if err := desc.Accepts(f.Name, v); err != nil {
			return nil, fmt.Errorf("insert %s: %w", desc.Name, err)
		}
		out[f.Name] = normalize(v)
	}
	return out, nil
}

// normalize NFC-normalises string values.
func normalize(v ir.IRValue) ir.IRValue {
	if s, ok := v.(ir.IRString); ok && !norm.NFC.IsNormalString(string(s)) {
		return ir.IRString(norm.NFC.String(string(s)))
	}
	if v == nil {
		return ir.IRNull{}
	}
	return v
}

// fromColumn converts a scanned SQL value to the IR type of field f.
func fromColumn(f schema.Field, v any) (ir.IRValue, error) {
	if v == nil {
		return ir.IRNull{}, nil
	}

	switch f.Type {
	case schema.TypeString:
		switch s := v.(type) {
		case string:
			return ir.IRString(s), nil
		case []byte:
			return ir.IRString(string(s)), nil
		}
	case schema.TypeInt, schema.TypeRef:
		if n, ok := v.(int64); ok {
			return ir.IRInt(n), nil
		}
	case schema.TypeBool:
		switch b := v.(type) {
		case int64:
			return ir.IRBool(b != 0), nil
		case bool:
			return ir.IRBool(b), nil
		}
	}
	return nil, fmt.Errorf("column %q: cannot convert %T to %s", f.Name, v, f.Type)
}
