package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/engine"
	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/plan"
	"github.com/roach88/querykit/internal/queryfile"
	"github.com/roach88/querykit/internal/queryir"
	"github.com/roach88/querykit/internal/querysql"
	"github.com/roach88/querykit/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema string // schema directory, defaults to config schema_dir
	Output string // output file path
}

// CompilationResult is the compiled form of one query file.
type CompilationResult struct {
	Source      string         `json:"source"`
	Fetch       string         `json:"fetch"`
	SQL         string         `json:"sql"`
	Params      []any          `json:"params"`
	CountSQL    string         `json:"count_sql,omitempty"`
	CountParams []any          `json:"count_params,omitempty"`
	Fingerprint string         `json:"fingerprint"`
	Plan        map[string]any `json:"plan"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query file to SQL",
		Long: `Compile a YAML query definition against the schema and print the SQL
statement the engine issues for it, with bound parameters and the plan
fingerprint.

Single-row fetch modes show the statement with the limit the engine adds
(2 for one and one_or_none, 1 for first). The results mode also shows the
count statement.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema directory (default: schema_dir from config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, queryPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := loadRegistry(formatter, opts.schemaDir(opts.Schema))
	if err != nil {
		return err
	}

	q, p, c, err := loadPlan(formatter, reg, queryPath)
	if err != nil {
		return err
	}

	result, err := compileQuery(q, p, c)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}
	opts.logger().Debug("query compiled", "source", result.Source, "fingerprint", result.Fingerprint)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeJSONFile(result, opts.Output); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// schemaDir returns flag when set, otherwise the configured directory.
func (o *RootOptions) schemaDir(flag string) string {
	if flag != "" {
		return flag
	}
	return o.config().SchemaDir
}

// loadPlan reads a query file and builds its plan. Failures are reported
// through formatter; plan errors carry their query error code.
func loadPlan(formatter *OutputFormatter, reg *schema.Registry, path string) (*queryfile.Query, *plan.Plan, engine.Cardinality, error) {
	q, err := queryfile.LoadFile(path)
	if err != nil {
		return nil, nil, 0, commandError(formatter, ErrCodeQueryFile, err.Error())
	}

	c, err := q.Cardinality()
	if err != nil {
		return nil, nil, 0, commandError(formatter, string(queryir.ErrCodeInvalidPlan), err.Error())
	}

	p, err := q.Plan(reg)
	if err != nil {
		code := string(queryir.CodeOf(err))
		if code == "" {
			code = ErrCodeGeneric
		}
		return nil, nil, 0, commandError(formatter, code, err.Error())
	}
	return q, p, c, nil
}

// compileQuery renders the statements the engine issues for p under c.
func compileQuery(q *queryfile.Query, p *plan.Plan, c engine.Cardinality) (*CompilationResult, error) {
	result := &CompilationResult{
		Source:      q.Source,
		Fetch:       c.String(),
		Fingerprint: p.Fingerprint(),
		Plan:        ir.ToAny(p.Describe()).(map[string]any),
	}

	var err error
	switch c {
	case engine.Count:
		result.SQL, result.Params, err = querysql.CompileCount(p.CountForm())
	case engine.ExactlyOne, engine.OneOrNone:
		result.SQL, result.Params, err = querysql.Compile(p.WithLimit(2))
	case engine.First:
		result.SQL, result.Params, err = querysql.Compile(p.WithLimit(1))
	default:
		result.SQL, result.Params, err = querysql.Compile(p)
	}
	if err != nil {
		return nil, err
	}

	if c == engine.ManyWithTotalCount {
		result.CountSQL, result.CountParams, err = querysql.CompileCount(p.CountForm())
		if err != nil {
			return nil, err
		}
	}

	if result.Params == nil {
		result.Params = []any{}
	}
	return result, nil
}

// outputCompileSuccess outputs the compiled query.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %s query (fetch: %s)\n\n", result.Source, result.Fetch)
	fmt.Fprintf(formatter.Writer, "SQL:         %s\n", result.SQL)
	fmt.Fprintf(formatter.Writer, "Params:      %s\n", formatParams(result.Params))
	if result.CountSQL != "" {
		fmt.Fprintf(formatter.Writer, "Count SQL:   %s\n", result.CountSQL)
		fmt.Fprintf(formatter.Writer, "Count params: %s\n", formatParams(result.CountParams))
	}
	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n", result.Fingerprint)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote compiled query to %s\n", outputFile)
	}

	return nil
}

// formatParams renders params as a JSON array.
func formatParams(params []any) string {
	if params == nil {
		params = []any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprint(params)
	}
	return string(data)
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(v any, filename string) error {
	// Use standard JSON with indentation for readability
	// (canonical JSON without indentation is used only for hashing)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
