package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/extractor"
	"github.com/insightdelivered/material-processor/internal/job"
	"github.com/insightdelivered/material-processor/internal/logging"
	"github.com/insightdelivered/material-processor/internal/models"
	"github.com/insightdelivered/material-processor/internal/processor"
)

const version = "1.0.0"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	labels   string
	logLevel string
	logFile  string

	resolved config.Labels
	closeLog func() error
}

func main() {
	opts := &rootOptions{}
	err := newRootCmd(opts).ExecuteContext(context.Background())
	if cerr := opts.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// close releases the log file opened by the root pre-run hook. It runs
// whether or not the command failed.
func (o *rootOptions) close() error {
	if o.closeLog == nil {
		return nil
	}
	err := o.closeLog()
	o.closeLog = nil
	return err
}

func newRootCmd(opts *rootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "material-processor",
		Short: "Material spreadsheet processor",
		Long: `Material spreadsheet processor

Syncs new material codes and inventory quantities into a bill of materials,
and turns a bill of materials into a purchase list with total cost.
Inputs are .xlsx or .csv files; outputs are .xlsx (or .csv for single-sheet
results).`,
		Example: `  # Replace old codes with new system codes
  material-processor map-codes --primary bom.xlsx --reference codes.xlsx -o bom_new.xlsx

  # Refresh stock from an inventory export
  material-processor sync-inventory --primary bom.xlsx --reference stock.xlsx

  # Purchase list for 250 units, Chinese headers
  material-processor plan-purchase --labels zh --primary bom.xlsx --qty 250

  # Browser form on localhost:8501
  material-processor serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := logging.Setup(logging.Options{
				Level: opts.logLevel,
				File:  opts.logFile,
			})
			if err != nil {
				return err
			}
			opts.closeLog = closeLog

			if opts.resolved, err = config.Resolve(opts.labels); err != nil {
				return err
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.labels, "labels", "en", "Label preset ("+strings.Join(config.Names(), ", ")+") or path to a YAML labels file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", logging.DefaultFile(), "JSON log file (empty disables; env "+logging.EnvLogFile+")")

	for _, task := range models.Tasks() {
		cmd.AddCommand(newTaskCmd(opts, task))
	}
	cmd.AddCommand(newDetectCmd(opts), newServeCmd(opts), newVersionCmd())
	return cmd
}

type taskOptions struct {
	primary   string
	reference string
	qty       int
	output    string
}

func newTaskCmd(root *rootOptions, task models.Task) *cobra.Command {
	var opts taskOptions

	cmd := &cobra.Command{
		Use:   string(task),
		Short: task.Title(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, root, task, opts)
		},
	}

	primaryCols, referenceCols := processor.RequiredColumns(task, config.English)
	cmd.Flags().StringVar(&opts.primary, "primary", "", "Primary table, needs columns: "+strings.Join(primaryCols, ", "))
	if task.NeedsReference() {
		cmd.Flags().StringVar(&opts.reference, "reference", "", "Reference table, needs columns: "+strings.Join(referenceCols, ", "))
	}
	if task == models.TaskPlanPurchase {
		cmd.Flags().IntVar(&opts.qty, "qty", 1, "Production quantity (units to build)")
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (defaults to <primary>_<task>.xlsx)")
	return cmd
}

func runTask(cmd *cobra.Command, root *rootOptions, task models.Task, opts taskOptions) error {
	out := cmd.OutOrStdout()
	outPath := opts.output
	if outPath == "" && opts.primary != "" {
		outPath = defaultOutput(opts.primary, task)
	}

	fmt.Fprintf(out, "Processing: %s\n", task.Title())
	fmt.Fprintf(out, "  Primary: %s\n", opts.primary)
	if task.NeedsReference() {
		fmt.Fprintf(out, "  Reference: %s\n", opts.reference)
	}

	outcome, err := job.Run(cmd.Context(), job.Request{
		Task:          task,
		Primary:       job.FileSource(opts.primary),
		Reference:     job.FileSource(opts.reference),
		ProductionQty: opts.qty,
		OutputPath:    outPath,
		Labels:        root.resolved,
	})
	if err != nil {
		return err
	}

	res := outcome.Result
	fmt.Fprintf(out, "  Rows: %d\n", res.Rows)
	if task.NeedsReference() {
		fmt.Fprintf(out, "  Matched: %d\n", res.Matched)
	} else {
		fmt.Fprintf(out, "  Purchase rows: %d\n", res.PurchaseRows)
		if res.MissingCostRows > 0 {
			fmt.Fprintf(out, "  Warning: %d row(s) had no usable cost and were left out of the total.\n", res.MissingCostRows)
		}
	}
	fmt.Fprintf(out, "  %s\n", strings.ReplaceAll(outcome.Message(), "\n", "\n  "))
	return nil
}

// defaultOutput names the result next to the primary file.
func defaultOutput(primary string, task models.Task) string {
	base := strings.TrimSuffix(primary, filepath.Ext(primary))
	return base + "_" + strings.ReplaceAll(string(task), "-", "_") + ".xlsx"
}

func newDetectCmd(root *rootOptions) *cobra.Command {
	var primary, reference string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Report which task the input headers fit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if primary == "" {
				return &models.MissingInputError{Field: "primary file"}
			}
			p, err := extractor.ExtractTable(primary)
			if err != nil {
				return err
			}
			var r *models.Table
			if reference != "" {
				if r, err = extractor.ExtractTable(reference); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			task, err := processor.Detect(p, r, root.resolved)
			if err != nil {
				fmt.Fprintln(out, "Primary columns:")
				for _, line := range processor.DescribeColumns(p) {
					fmt.Fprintf(out, "  %s\n", line)
				}
				return err
			}
			log.Debug().Str("task", string(task)).Msg("Detected task")
			fmt.Fprintf(out, "%s (%s)\n", task, task.Title())
			return nil
		},
	}
	cmd.Flags().StringVar(&primary, "primary", "", "Primary table")
	cmd.Flags().StringVar(&reference, "reference", "", "Reference table (for the code and inventory tasks)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "material-processor v%s\n", version)
		},
	}
}

// exitCode is 2 for input problems and 1 for everything else.
func exitCode(err error) int {
	if models.IsInputError(err) {
		return 2
	}
	return 1
}
