package processor

import (
	"fmt"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/models"
)

// Input carries the tables and parameters of one task run.
type Input struct {
	Primary   *models.Table
	Reference *models.Table

	// ProductionQty multiplies required quantities (plan-purchase only).
	ProductionQty int
}

// Processor defines the interface for task implementations.
type Processor interface {
	// Process runs the task and returns the sheets to write.
	Process(in Input) (*models.Result, error)
	// TaskName returns the human-readable task name.
	TaskName() string
}

// New returns the processor for the given task.
func New(task models.Task, labels config.Labels) (Processor, error) {
	switch task {
	case models.TaskMapCodes:
		return NewCodeMapper(labels), nil
	case models.TaskSyncInventory:
		return NewInventorySync(labels), nil
	case models.TaskPlanPurchase:
		return NewPurchasePlanner(labels), nil
	default:
		return nil, fmt.Errorf("unsupported task: %q", task)
	}
}

// RequiredColumns returns the headers a task needs on its primary and
// reference tables.
func RequiredColumns(task models.Task, labels config.Labels) (primary, reference []string) {
	c := labels.Columns
	switch task {
	case models.TaskMapCodes:
		return []string{c.OriginalCode, c.NewCode}, []string{c.Code, c.NewSystemCode}
	case models.TaskSyncInventory:
		return []string{c.NewCode, c.StockQty}, []string{c.MaterialCode, c.BaseUnitQty}
	case models.TaskPlanPurchase:
		return []string{c.RequiredQty, c.StockQty, c.UnitPrice}, nil
	default:
		return nil, nil
	}
}

// Detect picks the task whose required columns are all present. With a
// reference table the join tasks are tried in menu order; without one only
// plan-purchase is possible.
func Detect(primary, reference *models.Table, labels config.Labels) (models.Task, error) {
	if primary == nil {
		return "", &models.MissingInputError{Field: "primary table"}
	}
	for _, task := range models.Tasks() {
		if task.NeedsReference() != (reference != nil) {
			continue
		}
		p, r := RequiredColumns(task, labels)
		if len(primary.MissingColumns(p...)) > 0 {
			continue
		}
		if reference != nil && len(reference.MissingColumns(r...)) > 0 {
			continue
		}
		return task, nil
	}
	return "", &models.DetectError{Table: "primary", Columns: primary.Header}
}

// validate checks both tables before any row is touched.
func validate(task models.Task, labels config.Labels, primary, reference *models.Table) error {
	p, r := RequiredColumns(task, labels)
	if primary == nil {
		return &models.MissingInputError{Field: "primary table"}
	}
	if err := models.RequireColumns("primary", primary, p...); err != nil {
		return err
	}
	if len(r) == 0 {
		return nil
	}
	if reference == nil {
		return &models.MissingInputError{Field: "reference table"}
	}
	return models.RequireColumns("reference", reference, r...)
}
