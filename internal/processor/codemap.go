package processor

import (
	"github.com/rs/zerolog/log"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/models"
)

// CodeMapper copies new system codes onto a bill of materials.
//
// For each primary row the original code is looked up in the reference
// code column. A hit writes the reference's new system code into the new
// code column; a miss clears it to empty text.
type CodeMapper struct {
	labels  config.Labels
	indexer indexer
}

// NewCodeMapper returns a CodeMapper using the given labels.
func NewCodeMapper(labels config.Labels) *CodeMapper {
	return &CodeMapper{labels: labels, indexer: newKeyIndex}
}

func (m *CodeMapper) TaskName() string {
	return models.TaskMapCodes.Title()
}

// Map returns a copy of primary with the new code column rebuilt from
// reference. Neither input is modified.
func (m *CodeMapper) Map(primary, reference *models.Table) (*models.Table, int, error) {
	if err := validate(models.TaskMapCodes, m.labels, primary, reference); err != nil {
		return nil, 0, err
	}

	c := m.labels.Columns
	idx := m.indexer(reference, c.Code, c.NewSystemCode)
	out, matched := join(primary, idx, joinSpec{
		key:      c.OriginalCode,
		target:   c.NewCode,
		fallback: models.Text(""),
	})

	log.Debug().
		Int("rows", out.Len()).
		Int("matched", matched).
		Msg("Mapped material codes")
	return out, matched, nil
}

func (m *CodeMapper) Process(in Input) (*models.Result, error) {
	out, matched, err := m.Map(in.Primary, in.Reference)
	if err != nil {
		return nil, err
	}
	out.Name = m.labels.Sheets.Data
	return &models.Result{
		Task:    models.TaskMapCodes,
		Sheets:  []*models.Table{out},
		Rows:    out.Len(),
		Matched: matched,
	}, nil
}
