package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"datasift/app"
	"datasift/app/correlation"
	"datasift/app/fileloader"
	"datasift/app/settings"
)

func newLoadCommand() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "load <path>",
		Short: "Load a file and print it as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			t, err := a.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), t, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 20, "Maximum rows to print (0 prints all)")
	return cmd
}

func newPreviewCommand() *cobra.Command {
	var opts fileloader.PreviewOptions
	cmd := &cobra.Command{
		Use:   "preview <path>",
		Short: "Summarize a file without cleaning it",
		Long: `Print the first rows of a file together with its column types, missing
value counts and approximate memory usage. Column types are inferred at
load time; names and missing values are left as they are in the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.Preview(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			renderTable(w, p.Head, 0)
			_, _ = fmt.Fprintf(w, "\nTotal rows: %d\nMemory usage: %d bytes\n\n", p.TotalRows, p.MemoryUsage)
			renderColumns(w, p.Columns, p.DataTypes, p.MissingValues)
			if p.Sample != nil {
				_, _ = fmt.Fprintln(w, "\nSample:")
				renderTable(w, p.Sample, 0)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Rows, "rows", "n", 5, "Number of leading rows")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", 0, "Also print this many random rows")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Seed for a reproducible sample")
	return cmd
}

func newCleanCommand() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "clean <path>",
		Short: "Drop duplicates, normalize names, infer types and fill missing values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Clean(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			renderTable(w, res.Table, rows)
			renderReport(w, res.Report)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 20, "Maximum rows to print (0 prints all)")
	return cmd
}

func renderReport(w io.Writer, r *app.CleanReport) {
	_, _ = fmt.Fprintf(w, "\nInput rows: %d\nDuplicates dropped: %d\n", r.InputRows, r.DuplicatesDropped)
	for _, rn := range r.Renamed {
		_, _ = fmt.Fprintf(w, "Renamed %q -> %q\n", rn.From, rn.To)
	}
	dtypes := make(map[string]string, len(r.Kinds))
	for name, kind := range r.Kinds {
		dtypes[name] = kind.DType()
	}
	names := sortedKeys(dtypes)
	renderColumns(w, names, dtypes, r.Filled)
}

func newCorrCommand() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "corr <path>",
		Short: "Print the correlation matrix of the numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			m, err := correlation.ParseMethod(method)
			if err != nil {
				return err
			}
			matrix, err := a.Correlation(cmd.Context(), args[0], m)
			if err != nil {
				return err
			}
			renderMatrix(cmd.OutOrStdout(), matrix)
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", string(correlation.Pearson), "Correlation method (pearson|kendall|spearman)")
	_ = cmd.RegisterFlagCompletionFunc("method", completeMethods)
	return cmd
}

func newPruneCommand() *cobra.Command {
	var (
		opts   correlation.PruneOptions
		method string
		rows   int
	)
	cmd := &cobra.Command{
		Use:   "prune <path>",
		Short: "Remove numeric columns that are redundant with an earlier column",
		Long: `Remove every numeric column whose correlation with an earlier numeric
column exceeds the threshold. Absolute coefficients are compared unless
--signed is given, in which case strong negative correlations are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Method, err = correlation.ParseMethod(method); err != nil {
				return err
			}
			res, err := a.RemoveRedundant(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			renderTable(w, res.Table, rows)
			if len(res.Dropped) == 0 {
				_, _ = fmt.Fprintln(w, "No redundant columns")
				return nil
			}
			_, _ = fmt.Fprintf(w, "Dropped: %s\n", strings.Join(res.Dropped, ", "))
			return nil
		},
	}
	cmd.Flags().Float64VarP(&opts.Threshold, "threshold", "t", 0, "Correlation threshold in [0,1] (default: correlation_threshold setting)")
	cmd.Flags().StringVarP(&method, "method", "m", string(correlation.Pearson), "Correlation method (pearson|kendall|spearman)")
	cmd.Flags().BoolVar(&opts.Signed, "signed", false, "Compare signed coefficients instead of absolute values")
	cmd.Flags().IntVarP(&rows, "rows", "n", 20, "Maximum rows to print (0 prints all)")
	_ = cmd.RegisterFlagCompletionFunc("method", completeMethods)
	return cmd
}

func completeMethods(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{string(correlation.Pearson), string(correlation.Kendall), string(correlation.Spearman)}, cobra.ShellCompDirectiveNoFileComp
}

func newBatchCommand() *cobra.Command {
	var (
		schema map[string]string
		policy string
	)
	cmd := &cobra.Command{
		Use:   "batch <path|glob>...",
		Short: "Load several files and validate them against a schema",
		Example: `  datasift batch 'data/**/*.csv' --schema age=int64,name=object
  datasift batch a.csv b.xlsx --policy collect`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy") {
				s := a.Settings()
				s.BatchPolicy = policy
				if a, err = app.NewApp(s, nil); err != nil {
					return err
				}
			}
			res, err := a.LoadBatch(cmd.Context(), args, fileloader.Schema(schema))
			if res != nil {
				renderBatch(cmd.OutOrStdout(), res)
			}
			if err != nil {
				return err
			}
			return res.Err()
		},
	}
	cmd.Flags().StringToStringVar(&schema, "schema", nil, "Expected column types as name=dtype pairs")
	cmd.Flags().StringVar(&policy, "policy", "", "Failure policy (abort|collect) (default: batch_policy setting)")
	return cmd
}

func renderBatch(w io.Writer, res *fileloader.BatchResult) {
	tw := newWriter(w)
	tw.AppendHeader(prettytable.Row{"file", "rows", "columns", "status"})
	for _, path := range res.Paths {
		if t, ok := res.Tables[path]; ok {
			tw.AppendRow(prettytable.Row{path, t.NumRows(), t.NumCols(), "ok"})
			continue
		}
		if err, ok := res.Errors[path]; ok {
			tw.AppendRow(prettytable.Row{path, "", "", err.Error()})
		}
	}
	tw.Render()
	_, _ = fmt.Fprintf(w, "Batch %s: %d loaded, %d failed\n", res.ID, len(res.Tables), len(res.Errors))
}

func newChunksCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "chunks <path>",
		Short: "Read a delimited file in fixed-size chunks and report each chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			r, err := a.Chunks(ctx, args[0], size)
			if err != nil {
				return err
			}
			defer r.Close()

			w := cmd.OutOrStdout()
			total := 0
			for {
				chunk, err := r.Next(ctx)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				total += chunk.NumRows()
				_, _ = fmt.Fprintf(w, "chunk %d: %d rows, %d missing\n", r.Chunks(), chunk.NumRows(), chunk.TotalMissing())
			}
			_, _ = fmt.Fprintf(w, "%d chunks, %d rows, columns: %s\n", r.Chunks(), total, strings.Join(r.Header(), ", "))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "Rows per chunk (default: chunk_size setting)")
	return cmd
}

func newConfigCommand(flags *globalFlags) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Long: `Print the effective settings as YAML. With --save the settings are
written back to the settings file; only values that differ from the
defaults are stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			s := a.Settings()
			if save {
				svc := settings.NewSettingsService(flags.configFile)
				svc.SetCacheManager(a)
				if err := svc.SaveSettings(s); err != nil {
					return err
				}
				path, _ := svc.Path()
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved settings to %s\n", path)
			}
			out, err := encodeSettings(s)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Write the effective settings to the settings file")
	return cmd
}

// encodeSettings renders s as YAML with load_timeout as a duration string,
// the form the settings file accepts.
func encodeSettings(s settings.Settings) ([]byte, error) {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	m["load_timeout"] = s.LoadTimeout.String()
	return yaml.Marshal(m)
}
