package core

import (
	"context"
	"fmt"

	"stratsim/internal/relation"
	"stratsim/pkg/domain"
)

// Rule names.
const (
	RuleRelationshipIntegrity = "relationship_integrity"
	RuleStrategyDuration      = "strategy_duration"
	RuleMarketShareRange      = "market_share_range"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRelationshipIntegrityRule())
	engine.Register(NewStrategyDurationRule())
	engine.Register(NewMarketShareRangeRule())
	return engine
}

// NewRelationshipIntegrityRule blocks any commit whose client and product
// views disagree about a pairing.
func NewRelationshipIntegrityRule() domain.Rule { return relationshipIntegrityRule{} }

type relationshipIntegrityRule struct{}

func (relationshipIntegrityRule) Name() string { return RuleRelationshipIntegrity }

func (relationshipIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, m := range relation.Mismatches(view.ListClients(), view.ListProducts()) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleRelationshipIntegrity,
			Severity: domain.SeverityBlock,
			Message:  m.String(),
			Entity:   domain.EntityClient,
			EntityID: fmt.Sprint(m.ClientID),
		})
	}
	return res, nil
}

// NewStrategyDurationRule warns about active strategies whose duration falls
// outside the projection horizon.
func NewStrategyDurationRule() domain.Rule { return strategyDurationRule{} }

type strategyDurationRule struct{}

func (strategyDurationRule) Name() string { return RuleStrategyDuration }

func (strategyDurationRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, s := range view.ListStrategies() {
		if !s.Active || (s.DurationMonths > 0 && s.DurationMonths <= 12) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleStrategyDuration,
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("strategy %q lasts %d months; only months 1-12 are projected", s.Name, s.DurationMonths),
			Entity:   domain.EntityStrategy,
			EntityID: s.ID,
		})
	}
	return res, nil
}

// NewMarketShareRangeRule warns about products whose market share is not a
// percentage.
func NewMarketShareRangeRule() domain.Rule { return marketShareRangeRule{} }

type marketShareRangeRule struct{}

func (marketShareRangeRule) Name() string { return RuleMarketShareRange }

func (marketShareRangeRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, p := range view.ListProducts() {
		if p.MarketShare >= 0 && p.MarketShare <= 100 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleMarketShareRange,
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("product %s market share %.1f%% outside 0-100", p.Name, p.MarketShare),
			Entity:   domain.EntityProduct,
			EntityID: fmt.Sprint(p.ID),
		})
	}
	return res, nil
}
