package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/querykit/internal/ir"
)

// IDField is the implicit primary key present on every descriptor.
const IDField = "id"

// Sentinel errors returned (wrapped) by Descriptor.Accepts and Validate.
var (
	ErrUnknownField      = errors.New("unknown field")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrNullNotAllowed    = errors.New("null not allowed")
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// FieldType is the semantic type of a field.
type FieldType int

const (
	TypeString FieldType = iota + 1
	TypeInt
	TypeBool
	TypeRef
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeRef:
		return "ref"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// ParseFieldType maps the textual type names used in CUE definitions.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "bool":
		return TypeBool, nil
	case "ref":
		return TypeRef, nil
	default:
		return 0, fmt.Errorf("unsupported field type %q (want string, int, bool or ref)", s)
	}
}

// Field is one typed column of an entity.
type Field struct {
	Name     string
	Type     FieldType
	Ref      string // target entity name, TypeRef only
	Nullable bool
}

// Descriptor is the metadata for one entity. Fields holds the declared
// fields in declaration order and never includes the implicit id.
type Descriptor struct {
	Name   string
	Table  string
	Fields []Field
}

func idField() Field {
	return Field{Name: IDField, Type: TypeInt}
}

// Field returns the named field. The implicit id is always found.
func (d *Descriptor) Field(name string) (Field, bool) {
	if name == IDField {
		return idField(), true
	}
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// AllFields returns id followed by the declared fields.
func (d *Descriptor) AllFields() []Field {
	out := make([]Field, 0, len(d.Fields)+1)
	out = append(out, idField())
	return append(out, d.Fields...)
}

// FieldNames returns id followed by the declared field names.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, 0, len(d.Fields)+1)
	names = append(names, IDField)
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Accepts reports whether value may be stored in (or compared against) the
// named field. IRNull is accepted only on nullable fields; reference fields
// take the integer id of the referenced row.
func (d *Descriptor) Accepts(field string, value ir.IRValue) error {
	f, ok := d.Field(field)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, d.Name, field)
	}

	if ir.IsNull(value) {
		if !f.Nullable {
			return fmt.Errorf("%w: %s.%s", ErrNullNotAllowed, d.Name, field)
		}
		return nil
	}

	var matches bool
	switch f.Type {
	case TypeString:
		_, matches = value.(ir.IRString)
	case TypeInt, TypeRef:
		_, matches = value.(ir.IRInt)
	case TypeBool:
		_, matches = value.(ir.IRBool)
	}
	if !matches {
		return fmt.Errorf("%w: %s.%s is %s, got %s",
			ErrTypeMismatch, d.Name, field, f.Type, ir.TypeName(value))
	}
	return nil
}

// TableName returns Table, falling back to the lowercased entity name.
func (d *Descriptor) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return strings.ToLower(d.Name)
}

// Validate checks the descriptor in isolation. Reference targets are
// checked by Registry.Validate.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: entity name is empty", ErrInvalidDescriptor)
	}

	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("%w: %s has a field with an empty name", ErrInvalidDescriptor, d.Name)
		case f.Name == IDField:
			return fmt.Errorf("%w: %s declares %q, which is implicit", ErrInvalidDescriptor, d.Name, IDField)
		case seen[f.Name]:
			return fmt.Errorf("%w: %s declares %q twice", ErrInvalidDescriptor, d.Name, f.Name)
		case f.Type < TypeString || f.Type > TypeRef:
			return fmt.Errorf("%w: %s.%s has unsupported type %s", ErrInvalidDescriptor, d.Name, f.Name, f.Type)
		case f.Type == TypeRef && f.Ref == "":
			return fmt.Errorf("%w: %s.%s is a ref without a target", ErrInvalidDescriptor, d.Name, f.Name)
		case f.Type != TypeRef && f.Ref != "":
			return fmt.Errorf("%w: %s.%s sets ref on a %s field", ErrInvalidDescriptor, d.Name, f.Name, f.Type)
		}
		seen[f.Name] = true
	}
	return nil
}
