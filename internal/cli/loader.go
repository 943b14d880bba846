package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading a schema directory.
type LoadResult struct {
	Registry    *schema.Registry // nil when any entity failed
	Descriptors []*schema.Descriptor
	CUEValue    cue.Value // The raw CUE value for additional processing
	FileCount   int       // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema loads, compiles and validates the entity definitions in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
// A nil result means nothing could be loaded at all.
func LoadSchema(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, fileCount, err := compiler.LoadValue(dir)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: compileErr.Message, Pos: compileErr.Pos}}
		}
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: fileCount,
	}

	entities := value.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no entities found in schema"}}
	}

	iter, err := entities.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entities: %v", err)}}
	}

	for iter.Next() {
		desc, compileErr := compiler.CompileEntity(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "entity."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		for _, ve := range compiler.Validate(desc) {
			errs = append(errs, convertValidationError(ve))
			if mode == LoadModeFailFast {
				return result, errs
			}
		}
		result.Descriptors = append(result.Descriptors, desc)
	}

	if len(result.Descriptors) == 0 && len(errs) == 0 {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no entities found in schema"}}
	}
	if len(errs) > 0 {
		return result, errs
	}

	// Cross-entity checks: duplicate tables, dangling references
	reg, err := schema.NewRegistry(result.Descriptors...)
	if err != nil {
		return result, []error{&LoadError{Code: compiler.ErrDuplicateName, Message: err.Error()}}
	}
	for _, ve := range compiler.Validate(reg) {
		errs = append(errs, convertValidationError(ve))
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	if len(errs) == 0 {
		result.Registry = reg
	}
	return result, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		if strings.Contains(compileErr.Message, "float") {
			code = compiler.ErrFloatTypeForbidden
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

func convertValidationError(ve compiler.ValidationError) *LoadError {
	return &LoadError{
		Code:    ve.Code,
		Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Invalid configuration
	ErrCodeQueryFile   = "E009" // Query or fixtures file unreadable
	ErrCodeStore       = "E010" // Database open or write failed

	// E_TEST_FAILED is reported when one or more scenarios fail.
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// MapFieldToErrorCode maps a CompileError field path to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "type", strings.HasSuffix(field, ".type"), strings.HasSuffix(field, ".nullable"):
		return compiler.ErrInvalidFieldType
	case strings.HasSuffix(field, ".ref"):
		return compiler.ErrRefTargetMissing
	case strings.HasPrefix(field, "fields."):
		return compiler.ErrInvalidFieldType
	default:
		return ErrCodeGeneric
	}
}

// loadErrorParts extracts a code and message from any loader error.
func loadErrorParts(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// SourcePos locates a loader error in a CUE file.
type SourcePos struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// loadErrorDetails returns the CUE position of err, or nil when it has none.
func loadErrorDetails(err error) *SourcePos {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !loadErr.Pos.IsValid() {
		return nil
	}
	return &SourcePos{File: loadErr.Pos.Filename(), Line: loadErr.Pos.Line(), Column: loadErr.Pos.Column()}
}

// loadRegistry loads dir fail-fast and returns the registry or the first
// error as an ExitError already reported through formatter.
func loadRegistry(formatter *OutputFormatter, dir string) (*schema.Registry, error) {
	result, errs := LoadSchema(dir, LoadModeFailFast)
	if len(errs) > 0 {
		code, message := loadErrorParts(errs[0])
		if pos := loadErrorDetails(errs[0]); pos != nil {
			_ = formatter.Error(code, message, pos)
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
		}
		return nil, commandError(formatter, code, message)
	}
	formatter.VerboseLog("Loaded %d entit(ies) from %d CUE file(s) in %s",
		len(result.Descriptors), result.FileCount, dir)
	return result.Registry, nil
}

// commandError reports a command-level failure and returns the exit error.
func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
