package models

import (
	"fmt"
	"strings"
)

// Task identifies one of the supported spreadsheet jobs.
type Task string

const (
	TaskMapCodes      Task = "map-codes"
	TaskSyncInventory Task = "sync-inventory"
	TaskPlanPurchase  Task = "plan-purchase"

	// TaskAuto asks the runner to pick a task from the input headers.
	TaskAuto Task = "auto"
)

// Tasks lists the concrete tasks in menu order.
func Tasks() []Task {
	return []Task{TaskMapCodes, TaskSyncInventory, TaskPlanPurchase}
}

// Title returns the human-readable task name.
func (t Task) Title() string {
	switch t {
	case TaskMapCodes:
		return "Sync new material codes"
	case TaskSyncInventory:
		return "Sync inventory quantities"
	case TaskPlanPurchase:
		return "Generate purchase list"
	case TaskAuto:
		return "Detect from headers"
	default:
		return string(t)
	}
}

// NeedsReference reports whether the task joins against a second table.
func (t Task) NeedsReference() bool {
	return t == TaskMapCodes || t == TaskSyncInventory
}

// ParseTask accepts the canonical names, a few short aliases and the Chinese
// menu labels.
func ParseTask(s string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "map-codes", "map", "codes", "同步新物料编码":
		return TaskMapCodes, nil
	case "sync-inventory", "inventory", "stock", "同步库存数量":
		return TaskSyncInventory, nil
	case "plan-purchase", "plan", "purchase", "生成采购清单":
		return TaskPlanPurchase, nil
	case "auto", "":
		return TaskAuto, nil
	default:
		return "", fmt.Errorf("unknown task %q. Supported: map-codes, sync-inventory, plan-purchase, auto", s)
	}
}
