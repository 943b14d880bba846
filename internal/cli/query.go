package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/engine"
	"github.com/roach88/querykit/internal/ir"
	"github.com/roach88/querykit/internal/metrics"
	"github.com/roach88/querykit/internal/queryir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	StoreOptions
	Metrics bool // print collected metrics after the query
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query.yaml>",
		Short: "Execute a query file against the database",
		Long: `Build the plan of a YAML query definition and execute it against the
SQLite database under the query's fetch mode.

A result-contract violation (no row for one, several rows for one or
one_or_none) exits with status 1 and reports its error code.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics to stderr after the query")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, queryPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	reg, err := loadRegistry(formatter, opts.schemaDir(opts.Schema))
	if err != nil {
		return err
	}

	_, p, c, err := loadPlan(formatter, reg, queryPath)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, formatter, opts.storeConfig(opts.StoreOptions), reg)
	if err != nil {
		return err
	}
	defer db.Close()

	promReg := prometheus.NewRegistry()
	eng := engine.New(
		engine.WithLogger(opts.logger()),
		engine.WithMetrics(metrics.New(promReg, opts.config().Metrics.Namespace)),
	)

	res, execErr := eng.Execute(ctx, db, p, c)

	if opts.Metrics {
		if err := writeMetrics(formatter.GetErrWriter(), promReg); err != nil {
			return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("writing metrics: %v", err))
		}
	}

	if execErr != nil {
		return outputQueryError(formatter, execErr)
	}
	return outputQuerySuccess(formatter, res)
}

// writeMetrics writes every gathered family in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// outputQueryError reports an execution failure. Storage failures are
// command errors; every other query error is a failed result contract.
func outputQueryError(formatter *OutputFormatter, err error) error {
	code := queryir.CodeOf(err)
	if code == "" || code == queryir.ErrCodeStorage {
		c := string(code)
		if c == "" {
			c = ErrCodeStore
		}
		return commandError(formatter, c, err.Error())
	}
	_ = formatter.Error(string(code), err.Error(), nil)
	return WrapExitError(ExitFailure, string(code), err)
}

// outputQuerySuccess prints the result payload.
func outputQuerySuccess(formatter *OutputFormatter, res *engine.Result) error {
	payload := res.Describe()

	if formatter.Format == "json" {
		return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    ir.ToAny(payload),
			QueryID: res.QueryID,
		})
	}

	w := formatter.Writer
	switch res.Cardinality {
	case engine.Count:
		fmt.Fprintf(w, "count: %d\n", res.Total)
	case engine.ExactlyOne, engine.OneOrNone, engine.First:
		row, ok := res.Row()
		if !ok {
			fmt.Fprintln(w, "(no row)")
			break
		}
		fmt.Fprintln(w, renderRow(row))
	default:
		for _, row := range res.Rows {
			fmt.Fprintln(w, renderRow(row))
		}
		fmt.Fprintf(w, "(%d row(s))\n", len(res.Rows))
		if res.Cardinality == engine.ManyWithTotalCount {
			fmt.Fprintf(w, "total: %d, offset: %d", res.Total, res.Offset)
			if res.HasLimit {
				fmt.Fprintf(w, ", limit: %d", res.Limit)
			}
			fmt.Fprintln(w)
		}
	}
	formatter.VerboseLog("query_id: %s", res.QueryID)
	return nil
}

// renderRow prints a row as canonical JSON.
func renderRow(row ir.IRObject) string {
	data, err := ir.MarshalCanonical(row)
	if err != nil {
		return fmt.Sprint(ir.ToAny(row))
	}
	return string(data)
}
