package processor

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/models"
)

// PurchasePlanner computes what must be bought to build a batch of units.
//
// Per row:
//
//	shortfall = required_qty * production_qty - stock_qty
//	demand    = max(shortfall, 0)
//	cost      = demand * unit_price
//
// A missing or non-numeric operand makes the derived values missing. Rows
// with a missing cost are left out of the total and counted separately.
type PurchasePlanner struct {
	labels config.Labels
}

// PurchasePlan is the output of PurchasePlanner.Plan.
type PurchasePlan struct {
	// Report is the primary table with numeric columns normalised and
	// shortfall, demand and cost appended.
	Report *models.Table
	// PurchaseList holds rows with positive demand, projected to material
	// name, demand, new code, unit price and cost.
	PurchaseList *models.Table

	TotalCost       decimal.Decimal
	MissingCostRows int
}

// NewPurchasePlanner returns a PurchasePlanner using the given labels.
func NewPurchasePlanner(labels config.Labels) *PurchasePlanner {
	return &PurchasePlanner{labels: labels}
}

func (p *PurchasePlanner) TaskName() string {
	return models.TaskPlanPurchase.Title()
}

// Plan builds the purchase report for productionQty units.
func (p *PurchasePlanner) Plan(primary *models.Table, productionQty int) (*PurchasePlan, error) {
	if err := validate(models.TaskPlanPurchase, p.labels, primary, nil); err != nil {
		return nil, err
	}
	if productionQty < 1 {
		return nil, &models.MissingInputError{Field: "production quantity", Reason: "must be at least 1"}
	}

	c := p.labels.Columns
	projection := []string{c.MaterialName, c.Demand, c.NewCode, c.UnitPrice, c.Cost}
	if missing := primary.MissingColumns(c.MaterialName, c.NewCode); len(missing) > 0 {
		return nil, &models.ProcessingError{
			Op:  "project purchase list",
			Err: &models.SchemaError{Table: "primary", Missing: missing},
		}
	}

	report := primary.Clone()
	report.Name = p.labels.Sheets.Report
	derived := p.derivedColumns(report)
	width := len(report.Header)

	reqIdx := report.ColumnIndex(c.RequiredQty)
	stockIdx := report.ColumnIndex(c.StockQty)
	priceIdx := report.ColumnIndex(c.UnitPrice)
	multiplier := decimal.NewFromInt(int64(productionQty))

	plan := &PurchasePlan{Report: report, TotalCost: decimal.Zero}
	for i, row := range report.Rows {
		required := parseNumber(row[reqIdx])
		stock := parseNumber(row[stockIdx])
		price := parseNumber(row[priceIdx])
		row[reqIdx], row[stockIdx], row[priceIdx] = required, stock, price

		shortfall := models.Missing()
		demand := models.Missing()
		cost := models.Missing()
		r, okR := required.Decimal()
		s, okS := stock.Decimal()
		if okR && okS {
			sf := r.Mul(multiplier).Sub(s)
			shortfall = models.Number(sf)
			dm := decimal.Max(sf, decimal.Zero)
			demand = models.Number(dm)
			if u, okU := price.Decimal(); okU {
				cost = models.Number(dm.Mul(u))
			}
		}
		if v, ok := cost.Decimal(); ok {
			plan.TotalCost = plan.TotalCost.Add(v)
		} else {
			plan.MissingCostRows++
		}
		if len(row) < width {
			row = append(row, make([]models.Cell, width-len(row))...)
		}
		row[derived[0]], row[derived[1]], row[derived[2]] = shortfall, demand, cost
		report.Rows[i] = row
	}

	plan.PurchaseList = p.purchaseList(report, projection)

	if plan.MissingCostRows > 0 {
		log.Warn().
			Int("rows", plan.MissingCostRows).
			Msg("Rows with non-numeric quantity or price were excluded from the total cost")
	}
	log.Debug().
		Int("rows", report.Len()).
		Int("purchase_rows", plan.PurchaseList.Len()).
		Str("total_cost", plan.TotalCost.StringFixed(2)).
		Msg("Planned purchase")
	return plan, nil
}

// derivedColumns returns the positions of the shortfall, demand and cost
// columns, appending any the table does not already have. A report fed back
// in is recomputed in place rather than growing duplicate columns.
func (p *PurchasePlanner) derivedColumns(report *models.Table) [3]int {
	c := p.labels.Columns
	var pos [3]int
	for i, name := range []string{c.Shortfall, c.Demand, c.Cost} {
		if j := report.ColumnIndex(name); j >= 0 {
			pos[i] = j
			continue
		}
		report.Header = append(report.Header, name)
		pos[i] = len(report.Header) - 1
	}
	return pos
}

// purchaseList keeps rows whose demand is a positive number.
func (p *PurchasePlanner) purchaseList(report *models.Table, columns []string) *models.Table {
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = report.ColumnIndex(name)
	}
	demandIdx := report.ColumnIndex(p.labels.Columns.Demand)

	out := models.NewTable(p.labels.Sheets.Purchase, columns)
	for _, row := range report.Rows {
		d, ok := row[demandIdx].Decimal()
		if !ok || !d.IsPositive() {
			continue
		}
		cells := make([]models.Cell, len(idx))
		for i, j := range idx {
			cells[i] = row[j]
		}
		out.AppendRow(cells...)
	}
	return out
}

// Summary builds the one-row cost summary sheet.
func (p *PurchasePlanner) Summary(total decimal.Decimal) *models.Table {
	s := p.labels.Summary
	t := models.NewTable(p.labels.Sheets.Summary, []string{s.Item, s.Amount})
	t.AppendRow(models.Text(s.CostLabel), models.Number(total))
	return t
}

func (p *PurchasePlanner) Process(in Input) (*models.Result, error) {
	plan, err := p.Plan(in.Primary, in.ProductionQty)
	if err != nil {
		return nil, err
	}
	return &models.Result{
		Task:            models.TaskPlanPurchase,
		Sheets:          []*models.Table{plan.Report, plan.PurchaseList, p.Summary(plan.TotalCost)},
		Rows:            plan.Report.Len(),
		PurchaseRows:    plan.PurchaseList.Len(),
		TotalCost:       decimal.NullDecimal{Decimal: plan.TotalCost, Valid: true},
		MissingCostRows: plan.MissingCostRows,
	}, nil
}
