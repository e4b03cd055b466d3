package log

import (
	"sort"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldBudgetID   = "budget_id"
	FieldMonthID    = "month_id"
	FieldPeriod     = "period"
	FieldMonths     = "months"
	FieldSynthetic  = "synthetic_months"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldMessageID  = "message_id"
	FieldFindings   = "findings"
	FieldFixed      = "fixed"
	FieldProcessed  = "processed"
	FieldFailed     = "failed"
	FieldConcurrent = "concurrency"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentRecalc  = "recalc"
	ComponentRepair  = "repair"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpRecalculate     = "recalculate"
	OpRecalculateFrom = "recalculate_from"
	OpFinalize        = "finalize_allocations"
	OpFixPrecision    = "fix_precision"
	OpRemapOrphans    = "remap_orphans"
	OpValidate        = "validate"
	OpRepairIndex     = "repair_index"
	OpEnqueue         = "enqueue"
	OpShutdown        = "shutdown"
	OpStartup         = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRunID adds the recalculation run id
func (f LogFields) WithRunID(runID string) LogFields {
	f[FieldRunID] = runID
	return f
}

// WithBudget adds budget id field
func (f LogFields) WithBudget(budgetID string) LogFields {
	f[FieldBudgetID] = budgetID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// ToSlice converts LogFields to a slice for slog, ordered by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
