package processor

import (
	"github.com/rs/zerolog/log"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/models"
)

// InventorySync copies on-hand quantities from an inventory export onto a
// bill of materials keyed by new material code. Rows with no inventory
// record get a stock of "0".
type InventorySync struct {
	labels  config.Labels
	indexer indexer
}

// NewInventorySync returns an InventorySync using the given labels.
func NewInventorySync(labels config.Labels) *InventorySync {
	return &InventorySync{labels: labels, indexer: newKeyIndex}
}

func (s *InventorySync) TaskName() string {
	return models.TaskSyncInventory.Title()
}

// Sync returns a copy of primary with the stock column rebuilt from
// reference.
func (s *InventorySync) Sync(primary, reference *models.Table) (*models.Table, int, error) {
	if err := validate(models.TaskSyncInventory, s.labels, primary, reference); err != nil {
		return nil, 0, err
	}

	log.Debug().
		Strs("primary_columns", DescribeColumns(primary)).
		Strs("inventory_columns", DescribeColumns(reference)).
		Msg("Inventory sync input columns")

	c := s.labels.Columns
	idx := s.indexer(reference, c.MaterialCode, c.BaseUnitQty)
	out, matched := join(primary, idx, joinSpec{
		key:      c.NewCode,
		target:   c.StockQty,
		fallback: models.Text("0"),
	})

	log.Debug().
		Int("rows", out.Len()).
		Int("matched", matched).
		Msg("Synced inventory quantities")
	return out, matched, nil
}

func (s *InventorySync) Process(in Input) (*models.Result, error) {
	out, matched, err := s.Sync(in.Primary, in.Reference)
	if err != nil {
		return nil, err
	}
	out.Name = s.labels.Sheets.Data
	return &models.Result{
		Task:    models.TaskSyncInventory,
		Sheets:  []*models.Table{out},
		Rows:    out.Len(),
		Matched: matched,
	}, nil
}
