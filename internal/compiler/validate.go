package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/querykit/internal/schema"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported value passed to Validate

	// Descriptor errors (E101-E109)
	ErrEntityNameInvalid  = "E101" // entity name empty or not an identifier
	ErrReservedField      = "E102" // field named id
	ErrDuplicateName      = "E103" // duplicate field, entity or table name
	ErrInvalidFieldType   = "E104" // unknown field type
	ErrRefTargetMissing   = "E105" // ref field without a target
	ErrFloatTypeForbidden = "E106" // float types not allowed
	ErrFieldNameInvalid   = "E107" // field name not an identifier
	ErrTableNameInvalid   = "E108" // table name not an identifier

	// Registry errors (E110-E119)
	ErrDanglingRef = "E110" // ref target not registered
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a descriptor or a whole registry.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch val := v.(type) {
	case *schema.Descriptor:
		return validateDescriptor(val)
	case schema.Descriptor:
		return validateDescriptor(&val)
	case *schema.Registry:
		return validateRegistry(val)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateDescriptor(d *schema.Descriptor) []ValidationError {
	var errs []ValidationError

	if !identPattern.MatchString(d.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("entity name %q is not an identifier", d.Name),
			Code:    ErrEntityNameInvalid,
		})
	}

	if d.Table != "" && !identPattern.MatchString(d.Table) {
		errs = append(errs, ValidationError{
			Field:   d.Name + ".table",
			Message: fmt.Sprintf("table name %q is not an identifier", d.Table),
			Code:    ErrTableNameInvalid,
		})
	}

	seen := make(map[string]bool)
	for i, f := range d.Fields {
		path := fmt.Sprintf("%s.fields[%d]", d.Name, i)

		if f.Name == schema.IDField {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "id is implicit and cannot be declared",
				Code:    ErrReservedField,
			})
		} else if !identPattern.MatchString(f.Name) {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("field name %q is not an identifier", f.Name),
				Code:    ErrFieldNameInvalid,
			})
		}

		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("duplicate field name: %q", f.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[f.Name] = true

		switch f.Type {
		case schema.TypeString, schema.TypeInt, schema.TypeBool:
			if f.Ref != "" {
				errs = append(errs, ValidationError{
					Field:   path + ".ref",
					Message: fmt.Sprintf("ref set on %s field %q", f.Type, f.Name),
					Code:    ErrInvalidFieldType,
				})
			}
		case schema.TypeRef:
			if f.Ref == "" {
				errs = append(errs, ValidationError{
					Field:   path + ".ref",
					Message: fmt.Sprintf("ref field %q has no target entity", f.Name),
					Code:    ErrRefTargetMissing,
				})
			}
		default:
			errs = append(errs, ValidationError{
				Field:   path + ".type",
				Message: fmt.Sprintf("invalid type for field %q", f.Name),
				Code:    ErrInvalidFieldType,
			})
		}
	}

	return errs
}

func validateRegistry(r *schema.Registry) []ValidationError {
	var errs []ValidationError

	tables := make(map[string]string)
	for _, d := range r.All() {
		errs = append(errs, validateDescriptor(d)...)

		if owner, exists := tables[d.TableName()]; exists {
			errs = append(errs, ValidationError{
				Field:   d.Name + ".table",
				Message: fmt.Sprintf("table %q already used by %s", d.TableName(), owner),
				Code:    ErrDuplicateName,
			})
		}
		tables[d.TableName()] = d.Name

		for i, f := range d.Fields {
			if f.Type != schema.TypeRef || f.Ref == "" {
				continue
			}
			if _, ok := r.Lookup(f.Ref); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.fields[%d].ref", d.Name, i),
					Message: fmt.Sprintf("reference to unknown entity %q", f.Ref),
					Code:    ErrDanglingRef,
				})
			}
		}
	}

	return errs
}
