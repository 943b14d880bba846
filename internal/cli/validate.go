package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Entities []EntitySummary `json:"entities,omitempty"`
	Errors   []CLIError      `json:"errors,omitempty"`
}

// EntitySummary describes one compiled entity.
type EntitySummary struct {
	Name   string   `json:"name"`
	Table  string   `json:"table"`
	Fields []string `json:"fields"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema-dir]",
		Short: "Validate entity definitions",
		Long: `Validate the CUE entity definitions in a schema directory.

Compiles every entity, checks field types, names and references, and
reports all problems at once. The directory defaults to schema_dir from
the configuration.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.config().SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result, loadErrors := LoadSchema(schemaDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if result == nil {
		code, message := loadErrorParts(loadErrors[0])
		return commandError(formatter, code, message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, schemaDir)

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, loadErrors)
	}

	opts.logger().Debug("schema validated", "dir", schemaDir, "entities", result.Registry.Len())
	return outputValidateSuccess(formatter, summarize(result.Registry))
}

// summarize lists entities in sorted name order.
func summarize(reg *schema.Registry) []EntitySummary {
	out := make([]EntitySummary, 0, reg.Len())
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)
		fields := make([]string, 0, len(desc.Fields))
		for _, f := range desc.Fields {
			fields = append(fields, describeField(f))
		}
		out = append(out, EntitySummary{Name: desc.Name, Table: desc.TableName(), Fields: fields})
	}
	return out
}

func describeField(f schema.Field) string {
	s := f.Name + ": " + f.Type.String()
	if f.Type == schema.TypeRef {
		s += " -> " + f.Ref
	}
	if f.Nullable {
		s += "?"
	}
	return s
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, entities []EntitySummary) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Entities: entities})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid: %d entit(ies)\n", len(entities))
	for _, e := range entities {
		fmt.Fprintf(formatter.Writer, "  %s (%s): %d field(s)\n", e.Name, e.Table, len(e.Fields))
		if formatter.Verbose {
			for _, f := range e.Fields {
				fmt.Fprintf(formatter.Writer, "    %s\n", f)
			}
		}
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := loadErrorParts(err)
		cliErrors[i] = CLIError{Code: code, Message: message}
		if pos := loadErrorDetails(err); pos != nil {
			cliErrors[i].Details = pos
		}
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: cliErrors},
			Error:  &cliErrors[0],
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if pos := loadErrorDetails(err); pos != nil {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", pos.File, pos.Line, pos.Column)
		}
		code, message := loadErrorParts(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
