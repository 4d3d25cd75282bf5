// Package domain defines the simulator entities, value types, and rule
// evaluation primitives shared by the store, the derivation engines and the
// persistence backends.
package domain

import (
	"fmt"
	"strings"
)

// EntityType identifies the type of record stored in the simulator.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityClient identifies a client organization.
	EntityClient EntityType = "client"
	// EntityProduct identifies a product line.
	EntityProduct EntityType = "product"
	// EntityStrategy identifies a strategy record.
	EntityStrategy EntityType = "strategy"
	// EntitySelection identifies a framework score selection set.
	EntitySelection EntityType = "selection"
	// EntityBudget identifies the budget reference snapshot.
	EntityBudget EntityType = "budget"
	// EntitySession identifies session-level metadata such as the current section.
	EntitySession EntityType = "session"
)

// ClientType enumerates the organization categories a client can belong to.
type ClientType string

const (
	// ClientTypeBank is a traditional banking institution.
	ClientTypeBank ClientType = "bank"
	// ClientTypeFintech is a financial technology company.
	ClientTypeFintech ClientType = "fintech"
)

// ParseClientType maps a label onto a ClientType. Catalog files and forms use
// the localized labels, so both spellings are accepted.
func ParseClientType(raw string) (ClientType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bank", "banco":
		return ClientTypeBank, true
	case "fintech":
		return ClientTypeFintech, true
	default:
		return "", false
	}
}

// StrategyType records where a strategy came from.
type StrategyType string

const (
	// StrategyManual is entered by a user.
	StrategyManual StrategyType = "manual"
	// StrategyGrowth is derived from the growth-quadrant (Ansoff) rule.
	StrategyGrowth StrategyType = "growth"
	// StrategyScores is derived from the PESTEL score-framework rule.
	StrategyScores StrategyType = "scores"
)

// ParseStrategyType maps catalog/form labels onto a StrategyType. Anything
// not recognised as framework-derived is treated as manual.
func ParseStrategyType(raw string) StrategyType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "growth", "ansoff":
		return StrategyGrowth
	case "scores", "pestel":
		return StrategyScores
	default:
		return StrategyManual
	}
}

// GrowthStrategy is the growth-quadrant tag attached to a product.
type GrowthStrategy string

const (
	// GrowthPenetration sells existing products in existing markets.
	GrowthPenetration GrowthStrategy = "penetration"
	// GrowthDevelopment brings new products to existing markets.
	GrowthDevelopment GrowthStrategy = "development"
	// GrowthExpansion takes existing products to new markets.
	GrowthExpansion GrowthStrategy = "expansion"
	// GrowthDiversification pairs new products with new markets.
	GrowthDiversification GrowthStrategy = "diversification"
	// GrowthDefault is the tag of a product without a growth choice.
	GrowthDefault GrowthStrategy = "default"
)

// ParseGrowthStrategy normalizes a tag; unknown values collapse to GrowthDefault.
func ParseGrowthStrategy(raw string) GrowthStrategy {
	switch tag := GrowthStrategy(strings.ToLower(strings.TrimSpace(raw))); tag {
	case GrowthPenetration, GrowthDevelopment, GrowthExpansion, GrowthDiversification:
		return tag
	default:
		return GrowthDefault
	}
}

// Quadrant is a BCG-style portfolio category.
type Quadrant string

const (
	// QuadrantStar holds high share in a high-growth market.
	QuadrantStar Quadrant = "star"
	// QuadrantQuestionMark holds low share in a high-growth market.
	QuadrantQuestionMark Quadrant = "question-mark"
	// QuadrantCashCow holds high share in a low-growth market.
	QuadrantCashCow Quadrant = "cash-cow"
	// QuadrantDog holds low share in a low-growth market.
	QuadrantDog Quadrant = "dog"
)

// Quadrants lists every quadrant in display order.
var Quadrants = []Quadrant{QuadrantStar, QuadrantQuestionMark, QuadrantCashCow, QuadrantDog}

// Section names the UI section that was visible when state was saved.
type Section string

// SectionClients is the landing section.
const SectionClients Section = "clientes"

// ClientProduct is one product line held by a client. It mirrors the
// ProductClient entry on the product side.
type ClientProduct struct {
	ProductID    int     `json:"product_id"`
	Name         string  `json:"name"`
	Transactions int     `json:"transactions"`
	UnitValue    float64 `json:"unit_value"`
	Revenue      float64 `json:"revenue"`
}

// ProductClient is one client line held by a product.
type ProductClient struct {
	ClientID     int     `json:"client_id"`
	Name         string  `json:"name"`
	Transactions int     `json:"transactions"`
	UnitValue    float64 `json:"unit_value"`
	Revenue      float64 `json:"revenue"`
}

// Client represents an organization buying products.
type Client struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Type         ClientType      `json:"type"`
	Products     []ClientProduct `json:"products"`
	Transactions int             `json:"transactions"`
	Revenue      float64         `json:"revenue"`
}

// Product represents a product line sold to clients.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Clients      []ProductClient `json:"clients"`
	Transactions int             `json:"transactions"`
	UnitValue    float64         `json:"unit_value"`
	Growth       float64         `json:"growth"`
	MarketShare  float64         `json:"market_share"`
	MarketGrowth float64         `json:"market_growth"`
	StrategyTag  GrowthStrategy  `json:"strategy_tag,omitempty"`
}

// Revenue returns transactions times unit value.
func (p Product) Revenue() float64 {
	return float64(p.Transactions) * p.UnitValue
}

// Strategy is a candidate or active initiative affecting projections.
type Strategy struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            StrategyType `json:"type"`
	TargetProductID *int         `json:"target_product_id,omitempty"`
	Investment      float64      `json:"investment"`
	DurationMonths  int          `json:"duration_months"`
	RevenueImpact   float64      `json:"revenue_impact_percent"`
	CostImpact      float64      `json:"cost_impact_percent"`
	Active          bool         `json:"active"`
}

// FinancialData holds the derived figures. It is recomputed from products
// and strategies and never patched field by field.
type FinancialData struct {
	Revenue     float64 `json:"revenue"`
	OpCosts     float64 `json:"op_costs"`
	GenExpenses float64 `json:"gen_expenses"`
	EBITDA      float64 `json:"ebitda"`
	ROI         float64 `json:"roi"`
	NPS         float64 `json:"nps"`
	Churn       float64 `json:"churn"`
	Uptime      float64 `json:"uptime"`
}

// DefaultFinancialData is the state before any recompute.
func DefaultFinancialData() FinancialData {
	return FinancialData{NPS: 50, Churn: 5, Uptime: 99.5}
}

// Budget is the fixed reference snapshot actual figures are compared against.
type Budget struct {
	Revenue     float64 `json:"revenue"`
	OpCosts     float64 `json:"op_costs"`
	GenExpenses float64 `json:"gen_expenses"`
	EBITDA      float64 `json:"ebitda"`
	ROI         float64 `json:"roi"`
	NPS         float64 `json:"nps"`
	Churn       float64 `json:"churn"`
	Uptime      float64 `json:"uptime"`
}

// DefaultBudget returns the reference budget used when none was saved.
func DefaultBudget() Budget {
	return Budget{
		Revenue:     1000000,
		OpCosts:     300000,
		GenExpenses: 200000,
		EBITDA:      500000,
		ROI:         25,
		NPS:         60,
		Churn:       3,
		Uptime:      99.9,
	}
}

// Framework identifies a structured business-analysis rubric.
type Framework string

const (
	// FrameworkPESTEL is the six-category macro-environment score framework.
	FrameworkPESTEL Framework = "pestel"
	// FrameworkPorter is the five-forces industry framework.
	FrameworkPorter Framework = "porter"
)

// ScoreSelection is one averaged category (or force) of a submitted framework form.
type ScoreSelection struct {
	Tag     string  `json:"tag"`
	Average float64 `json:"average"`
}

// Change captures a single mutation recorded inside a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)

// Severity controls how a violation affects a transaction.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "transaction blocked by rules"
}
