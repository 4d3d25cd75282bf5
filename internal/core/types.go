package core

import (
	"fmt"

	"stratsim/pkg/domain"
)

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Client             = domain.Client
	Product            = domain.Product
	Strategy           = domain.Strategy
	FinancialData      = domain.FinancialData
	Budget             = domain.Budget
	Snapshot           = domain.Snapshot
	Change             = domain.Change
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityClient   = domain.EntityClient
	EntityProduct  = domain.EntityProduct
	EntityStrategy = domain.EntityStrategy
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// ErrNotFound is returned when an operation names an entity that does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
