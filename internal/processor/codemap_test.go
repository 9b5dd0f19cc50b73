package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/models"
)

func TestCodeMapper_Map(t *testing.T) {
	primary := table("bom", []string{"material_name", "original_code", "new_code"},
		[]string{"bolt", "A1", ""},
		[]string{"nut", "B2", "STALE"},
		[]string{"washer", "C3", "OLD"},
		[]string{"pin", "", "KEEP?"},
	)
	reference := table("codes", []string{"code", "new_system_code"},
		[]string{"A1", "X9"},
		[]string{"C3", "Z1"},
		[]string{"C3", "Z2"}, // duplicate key: first match wins
	)

	m := NewCodeMapper(config.English)
	out, matched, err := m.Map(primary, reference)
	require.NoError(t, err)

	assert.Equal(t, []string{"X9", "", "Z1", ""}, column(out, "new_code"))
	assert.Equal(t, []string{"A1", "B2", "C3", ""}, column(out, "original_code"), "row order preserved")
	assert.Equal(t, primary.Header, out.Header)
	assert.Equal(t, 2, matched)

	// Misses are cleared to empty text, not left missing or unchanged.
	assert.False(t, out.Rows[1][2].IsMissing())

	// Inputs are untouched.
	assert.Equal(t, []string{"", "STALE", "OLD", "KEEP?"}, column(primary, "new_code"))
	assert.Equal(t, 3, reference.Len())
}

func TestCodeMapper_SingleRowExample(t *testing.T) {
	primary := table("bom", []string{"original_code", "new_code"}, []string{"A1", ""})
	reference := table("codes", []string{"code", "new_system_code"}, []string{"A1", "X9"})

	out, _, err := NewCodeMapper(config.English).Map(primary, reference)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "A1", out.Rows[0][0].String())
	assert.Equal(t, "X9", out.Rows[0][1].String())
}

func TestCodeMapper_SchemaErrors(t *testing.T) {
	tests := []struct {
		name        string
		primary     *models.Table
		reference   *models.Table
		wantTable   string
		wantMissing []string
	}{
		{
			name:        "primary missing new_code",
			primary:     table("bom", []string{"original_code"}, []string{"A1"}),
			reference:   table("codes", []string{"code", "new_system_code"}, []string{"A1", "X9"}),
			wantTable:   "primary",
			wantMissing: []string{"new_code"},
		},
		{
			name:        "reference missing both columns",
			primary:     table("bom", []string{"original_code", "new_code"}, []string{"A1", ""}),
			reference:   table("codes", []string{"id"}, []string{"A1"}),
			wantTable:   "reference",
			wantMissing: []string{"code", "new_system_code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyIndexer{}
			m := NewCodeMapper(config.English)
			m.indexer = spy.build

			_, _, err := m.Map(tt.primary, tt.reference)
			var schemaErr *models.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantTable, schemaErr.Table)
			assert.Equal(t, tt.wantMissing, schemaErr.Missing)
			assert.Zero(t, spy.builds)
			assert.Zero(t, spy.finds)
		})
	}
}

func TestCodeMapper_LooksUpEveryRowOnce(t *testing.T) {
	primary := table("bom", []string{"original_code", "new_code"},
		[]string{"A1", ""}, []string{"A2", ""}, []string{"A3", ""})
	reference := table("codes", []string{"code", "new_system_code"}, []string{"A2", "Y"})

	spy := &spyIndexer{}
	m := NewCodeMapper(config.English)
	m.indexer = spy.build

	res, err := m.Process(Input{Primary: primary, Reference: reference})
	require.NoError(t, err)
	assert.Equal(t, 1, spy.builds)
	assert.Equal(t, 3, spy.finds)
	assert.Equal(t, models.TaskMapCodes, res.Task)
	require.Len(t, res.Sheets, 1)
	assert.Equal(t, "Sheet1", res.Sheets[0].Name)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Matched)
}

func TestCodeMapper_MissingReference(t *testing.T) {
	primary := table("bom", []string{"original_code", "new_code"}, []string{"A1", ""})

	_, err := NewCodeMapper(config.English).Process(Input{Primary: primary})
	var missing *models.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "reference table", missing.Field)
}

func TestCodeMapper_ChineseLabels(t *testing.T) {
	primary := table("设备物料清单", []string{"原物料代码", "新编码"}, []string{"1001", "旧"})
	reference := table("旧物料表格", []string{"编码", "新系统编码"}, []string{"1001", "N-1001"})

	out, _, err := NewCodeMapper(config.Chinese).Map(primary, reference)
	require.NoError(t, err)
	assert.Equal(t, []string{"N-1001"}, column(out, "新编码"))
}
