package models

import "github.com/shopspring/decimal"

// Result holds everything a task produced, ready to be written as one
// workbook. Sheets are written in order.
type Result struct {
	Task   Task
	Sheets []*Table

	// Rows is the number of primary rows processed.
	Rows int

	// Matched counts primary rows that found a reference row (join tasks).
	Matched int

	// PurchaseRows, TotalCost and MissingCostRows are set by plan-purchase.
	PurchaseRows    int
	TotalCost       decimal.NullDecimal
	MissingCostRows int
}
