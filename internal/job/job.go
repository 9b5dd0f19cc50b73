// Package job runs one task end to end: read the input spreadsheets, run the
// processor, and write the output workbook. It is shared by the CLI and the
// web form.
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/extractor"
	"github.com/insightdelivered/material-processor/internal/models"
	"github.com/insightdelivered/material-processor/internal/processor"
	"github.com/insightdelivered/material-processor/internal/writer"
)

// Source is a spreadsheet the runner can open. Name carries the file name
// used to pick the reader.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource opens a file on disk.
func FileSource(path string) *Source {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return &Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// UploadSource opens a multipart upload.
func UploadSource(fh *multipart.FileHeader) *Source {
	if fh == nil {
		return nil
	}
	return &Source{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Request is everything one run needs. It replaces any ambient session
// state: callers build a fresh Request per run.
type Request struct {
	Task      models.Task
	Primary   *Source
	Reference *Source

	// ProductionQty is the number of units to plan for (plan-purchase).
	ProductionQty int
	OutputPath    string
	Labels        config.Labels
}

// Outcome describes a successful run.
type Outcome struct {
	RunID    string
	Task     models.Task
	Output   string
	Result   *models.Result
	Duration time.Duration
}

// Message is the operator-facing success line.
func (o *Outcome) Message() string {
	switch o.Task {
	case models.TaskMapCodes:
		return fmt.Sprintf("Done. New material codes synced to %s", o.Output)
	case models.TaskSyncInventory:
		return fmt.Sprintf("Done. Inventory synced to %s", o.Output)
	case models.TaskPlanPurchase:
		return fmt.Sprintf("Done. Report saved to %s\nTotal cost: %s", o.Output, FormatMoney(o.Result.TotalCost.Decimal.InexactFloat64()))
	default:
		return "Done."
	}
}

// FormatMoney renders an amount with two decimals and thousands separators.
func FormatMoney(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.2f", v)
}

// Run validates the request, reads the inputs, runs the task and writes the
// output. Inputs are checked before anything is read; nothing is written
// unless the task succeeds.
func Run(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Str("task", string(req.Task)).Logger()

	if err := checkInputs(req); err != nil {
		logger.Error().Err(err).Msg("Missing input")
		return nil, err
	}

	primary, err := readTable(ctx, req.Primary)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read primary table")
		return nil, err
	}
	var reference *models.Table
	if req.Reference != nil {
		if reference, err = readTable(ctx, req.Reference); err != nil {
			logger.Error().Err(err).Msg("Failed to read reference table")
			return nil, err
		}
	}

	task := req.Task
	if task == models.TaskAuto || task == "" {
		if task, err = processor.Detect(primary, reference, req.Labels); err != nil {
			logger.Warn().Err(err).Msg("Task detection failed")
			return nil, err
		}
		logger = logger.With().Str("detected_task", string(task)).Logger()
	}
	if task.NeedsReference() && reference == nil {
		err := &models.MissingInputError{Field: "reference file"}
		logger.Error().Err(err).Msg("Missing input")
		return nil, err
	}

	p, err := processor.New(task, req.Labels)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("processor", p.TaskName()).Int("rows", primary.Len()).Msg("Running task")

	result, err := p.Process(processor.Input{
		Primary:       primary,
		Reference:     reference,
		ProductionQty: req.ProductionQty,
	})
	if err != nil {
		logEvent(logger, err).Err(err).Msg("Processing failed")
		return nil, wrapProcessing("process "+string(task), err)
	}

	if err := ctx.Err(); err != nil {
		return nil, &models.ProcessingError{Op: "write output", Err: err}
	}
	if err := writer.WriteToFile(req.OutputPath, result.Sheets); err != nil {
		logger.Error().Err(err).Str("output", req.OutputPath).Msg("Failed to write output")
		return nil, &models.ProcessingError{Op: "write output", Err: err}
	}

	out := &Outcome{
		RunID:    runID,
		Task:     task,
		Output:   req.OutputPath,
		Result:   result,
		Duration: time.Since(start),
	}
	ev := logger.Info().
		Str("output", req.OutputPath).
		Int("rows", result.Rows).
		Dur("duration", out.Duration)
	if task.NeedsReference() {
		ev = ev.Int("matched", result.Matched)
	} else {
		ev = ev.Int("purchase_rows", result.PurchaseRows).
			Str("total_cost", result.TotalCost.Decimal.StringFixed(2)).
			Int("missing_cost_rows", result.MissingCostRows)
	}
	ev.Msg("Run finished")
	return out, nil
}

// checkInputs reports the first missing input in the order an operator
// fills the form: files, then output path, then parameters.
func checkInputs(req Request) error {
	if req.Primary == nil {
		return &models.MissingInputError{Field: "primary file"}
	}
	if req.Task.NeedsReference() && req.Reference == nil {
		return &models.MissingInputError{Field: "reference file"}
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return &models.MissingInputError{Field: "output path"}
	}
	if req.Task == models.TaskPlanPurchase && req.ProductionQty < 1 {
		return &models.MissingInputError{Field: "production quantity", Reason: "must be at least 1"}
	}
	return nil
}

func readTable(ctx context.Context, src *Source) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.ProcessingError{Op: "read " + src.Name, Err: err}
	}
	rc, err := src.Open()
	if err != nil {
		return nil, &models.ProcessingError{Op: "open " + src.Name, Err: err}
	}
	defer rc.Close()

	t, err := extractor.ExtractTableFrom(rc, src.Name)
	if err != nil {
		return nil, &models.ProcessingError{Op: "read " + src.Name, Err: err}
	}
	log.Debug().Str("file", src.Name).Int("rows", t.Len()).Strs("columns", t.Header).Msg("Loaded table")
	return t, nil
}

// wrapProcessing leaves the typed input errors as they are and wraps
// anything else.
func wrapProcessing(op string, err error) error {
	var proc *models.ProcessingError
	if models.IsInputError(err) || errors.As(err, &proc) {
		return err
	}
	return &models.ProcessingError{Op: op, Err: err}
}

func logEvent(logger zerolog.Logger, err error) *zerolog.Event {
	var schema *models.SchemaError
	if errors.As(err, &schema) {
		return logger.Warn().Strs("missing_columns", schema.Missing)
	}
	return logger.Error()
}
