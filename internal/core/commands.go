package core

import (
	"context"
	"fmt"
	"strings"

	"stratsim/internal/input"
	"stratsim/internal/strategy"
	"stratsim/pkg/domain"
)

// CommandKind names a user action routed through Dispatch.
type CommandKind string

const (
	// CommandAddClient creates a client from name and type.
	CommandAddClient CommandKind = "add_client"
	// CommandUpdateClient renames or retypes a client.
	CommandUpdateClient CommandKind = "update_client"
	// CommandAttachProduct links a product to a client.
	CommandAttachProduct CommandKind = "attach_product"
	// CommandReplaceClientProducts swaps every product line of a client.
	CommandReplaceClientProducts CommandKind = "replace_client_products"
	// CommandAddProduct creates a product; a blank name is skipped.
	CommandAddProduct CommandKind = "add_product"
	// CommandSetMarketPosition updates market growth, share and growth tag.
	CommandSetMarketPosition CommandKind = "set_market_position"
	// CommandSubmitPestel records PESTEL scores and appends strategies.
	CommandSubmitPestel CommandKind = "submit_pestel"
	// CommandSubmitPorter records Porter force scores.
	CommandSubmitPorter CommandKind = "submit_porter"
	// CommandAddStrategy adds a manual strategy.
	CommandAddStrategy CommandKind = "add_strategy"
	// CommandToggleStrategy flips a strategy between active and inactive.
	CommandToggleStrategy CommandKind = "toggle_strategy"
	// CommandNavigate changes the current section.
	CommandNavigate CommandKind = "navigate"
	// CommandSave persists the current state.
	CommandSave CommandKind = "save"
	// CommandLoad restores the saved state.
	CommandLoad CommandKind = "load"
)

// Form field names read from Command.Fields.
const (
	// FieldClientID is the target client id.
	FieldClientID = "client_id"
	// FieldProductID is the target product id.
	FieldProductID = "product_id"
	// FieldStrategyID is the target strategy id.
	FieldStrategyID = "strategy_id"
	// FieldName is a client, product or strategy name.
	FieldName = "name"
	// FieldType is the client type label.
	FieldType = "type"
	// FieldUnit is the product unit label.
	FieldUnit = "unit"
	// FieldTransactions is a whole transaction count.
	FieldTransactions = "transactions"
	// FieldUnitValue is the value of one transaction.
	FieldUnitValue = "unit_value"
	// FieldGrowth is the product growth rate.
	FieldGrowth = "growth"
	// FieldMarketShare is the relative market share.
	FieldMarketShare = "market_share"
	// FieldMarketGrowth is the market growth rate.
	FieldMarketGrowth = "market_growth"
	// FieldGrowthStrategy is the growth-quadrant tag.
	FieldGrowthStrategy = "growth_strategy"
	// FieldTargetProductID is the product a manual strategy targets.
	FieldTargetProductID = "target_product_id"
	// FieldInvestment is the strategy investment.
	FieldInvestment = "investment"
	// FieldDuration is the strategy duration in months.
	FieldDuration = "duration"
	// FieldRevenueImpact is the expected revenue impact.
	FieldRevenueImpact = "revenue_impact"
	// FieldActive is a boolean strategy flag.
	FieldActive = "active"
	// FieldSection is the section to navigate to.
	FieldSection = "section"
)

// FormLine is one raw product row of the client form.
type FormLine struct {
	ProductID    string
	Transactions string
	UnitValue    string
}

// Command is one user action with its raw form values. Values are coerced
// leniently: malformed numbers become zero.
type Command struct {
	Kind   CommandKind
	Fields map[string]string
	// Lines holds the product rows of CommandReplaceClientProducts.
	Lines []FormLine
	// Scores holds the raw 1 to 5 scores per PESTEL category or Porter
	// force, keyed by the category or force identifier.
	Scores map[string][]string
}

// Outcome carries what a dispatched command produced.
type Outcome struct {
	Result     Result
	Client     Client
	Product    Product
	Strategies []Strategy
	Attached   bool
	Loaded     bool
}

// Dispatch routes cmd to the matching service operation.
func (s *Service) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	f := fields(cmd.Fields)
	var out Outcome
	var err error
	switch cmd.Kind {
	case CommandAddClient:
		out.Client, out.Result, err = s.AddClient(ctx, Client{Name: f.text(FieldName), Type: clientType(f.text(FieldType))})
	case CommandUpdateClient:
		out.Client, out.Result, err = s.UpdateClient(ctx, f.integer(FieldClientID), f.text(FieldName), clientType(f.text(FieldType)))
	case CommandAttachProduct:
		out.Attached, out.Result, err = s.AttachProduct(ctx, f.integer(FieldClientID), f.integer(FieldProductID), f.integer(FieldTransactions), f.real(FieldUnitValue))
	case CommandReplaceClientProducts:
		lines := make([]domain.ProductLine, 0, len(cmd.Lines))
		for _, l := range cmd.Lines {
			lines = append(lines, domain.ProductLine{
				ProductID:    input.Int(l.ProductID),
				Transactions: input.Int(l.Transactions),
				UnitValue:    input.Float(l.UnitValue),
			})
		}
		out.Client, out.Result, err = s.ReplaceClientProducts(ctx, f.integer(FieldClientID), lines)
	case CommandAddProduct:
		name := f.text(FieldName)
		if name == "" {
			s.logger.Debug("add product skipped: blank name")
			break
		}
		out.Product, out.Result, err = s.AddProduct(ctx, Product{
			Name:         name,
			Unit:         f.text(FieldUnit),
			Transactions: f.integer(FieldTransactions),
			UnitValue:    f.real(FieldUnitValue),
			Growth:       f.real(FieldGrowth),
			MarketShare:  f.real(FieldMarketShare),
			MarketGrowth: f.real(FieldMarketGrowth),
		})
	case CommandSetMarketPosition:
		var emitted Strategy
		emitted, out.Result, err = s.SetMarketPosition(ctx, f.integer(FieldProductID), f.real(FieldMarketGrowth), f.real(FieldMarketShare),
			domain.ParseGrowthStrategy(f.text(FieldGrowthStrategy)))
		if emitted.ID != "" {
			out.Strategies = []Strategy{emitted}
		}
	case CommandSubmitPestel:
		raw := make(map[domain.PestelCategory][]string, len(cmd.Scores))
		for k, v := range cmd.Scores {
			if c := domain.PestelCategory(k); c.Valid() {
				raw[c] = v
			}
		}
		out.Strategies, out.Result, err = s.SubmitPestel(ctx, raw)
	case CommandSubmitPorter:
		raw := make(map[domain.PorterForce][]string, len(cmd.Scores))
		for k, v := range cmd.Scores {
			if force := domain.PorterForce(k); force.Valid() {
				raw[force] = v
			}
		}
		out.Result, err = s.SubmitPorter(ctx, raw)
	case CommandAddStrategy:
		var created Strategy
		created, out.Result, err = s.AddManualStrategy(ctx, strategy.ManualInput{
			Name:            f.text(FieldName),
			TargetProductID: input.OptionalInt(f[FieldTargetProductID]),
			Investment:      f.real(FieldInvestment),
			DurationMonths:  f.integer(FieldDuration),
			RevenueImpact:   f.real(FieldRevenueImpact),
		})
		out.Strategies = []Strategy{created}
	case CommandToggleStrategy:
		var updated Strategy
		updated, out.Result, err = s.SetStrategyActive(ctx, f.text(FieldStrategyID), f.flag(FieldActive))
		if updated.ID != "" {
			out.Strategies = []Strategy{updated}
		}
	case CommandNavigate:
		out.Result, err = s.SetCurrentSection(ctx, domain.Section(f.text(FieldSection)))
	case CommandSave:
		err = s.SaveState(ctx)
	case CommandLoad:
		out.Loaded, err = s.LoadState(ctx)
	default:
		return Outcome{}, fmt.Errorf("unknown command %q", cmd.Kind)
	}
	return out, err
}

type fields map[string]string

func (f fields) text(name string) string  { return strings.TrimSpace(f[name]) }
func (f fields) integer(name string) int  { return input.Int(f[name]) }
func (f fields) real(name string) float64 { return input.Float(f[name]) }

func (f fields) flag(name string) bool {
	switch strings.ToLower(f.text(name)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// clientType maps a form label; anything unrecognized is a fintech.
func clientType(raw string) domain.ClientType {
	if t, ok := domain.ParseClientType(raw); ok {
		return t
	}
	return domain.ClientTypeFintech
}
