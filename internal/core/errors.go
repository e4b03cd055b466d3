package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
	ErrEmptyBudgetID = errors.New("empty budget id")
	ErrBudgetMissing = errors.New("budget not found")
)

// Recalculation error taxonomy.
var (
	ErrMissingMonth        = errors.New("missing month")
	ErrOrphanedReference   = errors.New("orphaned reference")
	ErrPrecisionDrift      = errors.New("precision drift")
	ErrValidationViolation = errors.New("validation violation")
	ErrBatchWrite          = errors.New("batch write failure")
)

// FindingKind classifies a validation finding.
type FindingKind string

const (
	FindingNoOpTransfer       FindingKind = "noop_transfer"
	FindingAmbiguousTransfer  FindingKind = "ambiguous_transfer"
	FindingNegativeTransfer   FindingKind = "negative_transfer"
	FindingAdjustmentNoTarget FindingKind = "adjustment_without_target"
	FindingOrphanedAccount    FindingKind = "orphaned_account"
	FindingOrphanedCategory   FindingKind = "orphaned_category"
	FindingPrecisionDrift     FindingKind = "precision_drift"
	FindingWrongMonth         FindingKind = "wrong_month"
)

// Finding is a problem detected in stored data. Findings are reported, and
// only the repair passes that own a kind ever change the data.
type Finding struct {
	Kind          FindingKind `json:"kind"`
	BudgetID      string      `json:"budget_id"`
	Period        YearMonth   `json:"period"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Message       string      `json:"message"`
}

func (f Finding) Error() string {
	if f.TransactionID != "" {
		return fmt.Sprintf("%s %s tx %s: %s", f.BudgetID, f.Period, f.TransactionID, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", f.BudgetID, f.Period, f.Message)
}

// Unwrap maps a finding onto the error taxonomy so callers can use errors.Is.
func (f Finding) Unwrap() error {
	switch f.Kind {
	case FindingOrphanedAccount, FindingOrphanedCategory:
		return ErrOrphanedReference
	case FindingPrecisionDrift:
		return ErrPrecisionDrift
	default:
		return ErrValidationViolation
	}
}
