package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/querykit/internal/schema"
)

// CompileEntity parses a CUE value into an entity descriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Member: { fields: { age: "int" } }`)
//	desc, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Member")))
//
// A field is either a type name ("string", "int", "bool"), a bare CUE type
// (string, int, bool) or a struct {type, ref?, nullable?}. Fields keep their
// CUE source order.
func CompileEntity(v cue.Value) (*schema.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	desc := &schema.Descriptor{}

	// Entity name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		desc.Name = labels[len(labels)-1].String()
	}

	tableVal := v.LookupPath(cue.ParsePath("table"))
	if tableVal.Exists() {
		table, err := tableVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		desc.Table = table
	}

	fields, err := parseFields(v)
	if err != nil {
		return nil, err
	}
	desc.Fields = fields

	if desc.Table == "" {
		desc.Table = desc.TableName()
	}

	return desc, nil
}

// parseFields extracts field definitions in declaration order.
func parseFields(v cue.Value) ([]schema.Field, error) {
	var fields []schema.Field

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return fields, nil // an entity may carry only its id
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		field, err := parseField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	return fields, nil
}

// parseField supports the three field notations accepted by CompileEntity.
func parseField(name string, v cue.Value) (schema.Field, error) {
	field := schema.Field{Name: name}

	// Type name as a string literal
	if typeName, err := v.String(); err == nil {
		ft, err := schema.ParseFieldType(typeName)
		if err != nil {
			return field, &CompileError{Field: "fields." + name, Message: err.Error(), Pos: v.Pos()}
		}
		if ft == schema.TypeRef {
			return field, &CompileError{
				Field:   "fields." + name,
				Message: "ref fields must use the {type, ref} form",
				Pos:     v.Pos(),
			}
		}
		field.Type = ft
		return field, nil
	}

	// Structured form
	if v.IncompleteKind() == cue.StructKind {
		typeVal := v.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return field, &CompileError{
				Field:   "fields." + name + ".type",
				Message: "type is required",
				Pos:     v.Pos(),
			}
		}
		typeName, err := typeVal.String()
		if err != nil {
			return field, formatCUEError(err)
		}
		ft, err := schema.ParseFieldType(typeName)
		if err != nil {
			return field, &CompileError{Field: "fields." + name + ".type", Message: err.Error(), Pos: typeVal.Pos()}
		}
		field.Type = ft

		refVal := v.LookupPath(cue.ParsePath("ref"))
		if refVal.Exists() {
			ref, err := refVal.String()
			if err != nil {
				return field, formatCUEError(err)
			}
			field.Ref = ref
		}
		if ft == schema.TypeRef && field.Ref == "" {
			return field, &CompileError{
				Field:   "fields." + name + ".ref",
				Message: "ref fields must name their target entity",
				Pos:     v.Pos(),
			}
		}

		nullableVal := v.LookupPath(cue.ParsePath("nullable"))
		if nullableVal.Exists() {
			nullable, err := nullableVal.Bool()
			if err != nil {
				return field, &CompileError{
					Field:   "fields." + name + ".nullable",
					Message: "nullable must be a bool",
					Pos:     nullableVal.Pos(),
				}
			}
			field.Nullable = nullable
		}
		return field, nil
	}

	// Bare CUE type
	ft, err := extractFieldType(v)
	if err != nil {
		return field, err
	}
	field.Type = ft
	return field, nil
}

// extractFieldType converts a bare CUE kind to a field type.
// Floats are forbidden: values are integers or strings.
func extractFieldType(v cue.Value) (schema.FieldType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return schema.TypeString, nil
	case cue.IntKind:
		return schema.TypeInt, nil
	case cue.BoolKind:
		return schema.TypeBool, nil
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   "type",
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return 0, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
