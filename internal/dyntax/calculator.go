package dyntax

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-dyntax/internal/cart"
	"github.com/noah-isme/toko-dyntax/internal/events"
	"github.com/noah-isme/toko-dyntax/internal/obs"
)

// FeeID marks fees added by the calculator so a later pass can replace them.
const FeeID = "dynamic_taxes"

// RuleReader loads the current rule from the settings store.
type RuleReader interface {
	ReadRule(ctx context.Context) (TaxRule, error)
}

// RuleReaderFunc adapts a function to RuleReader.
type RuleReaderFunc func(ctx context.Context) (TaxRule, error)

// ReadRule calls f.
func (f RuleReaderFunc) ReadRule(ctx context.Context) (TaxRule, error) {
	return f(ctx)
}

// Config groups Calculator dependencies.
type Config struct {
	Rules  RuleReader
	Logger zerolog.Logger
	// Stack keeps fees from earlier passes instead of replacing them.
	Stack bool
}

// Calculator applies the configured rule to carts during fee recalculation.
type Calculator struct {
	rules  RuleReader
	logger zerolog.Logger
	stack  bool
}

var _ events.CartFeeHandler = (*Calculator)(nil)

// NewCalculator validates cfg and returns a Calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.Rules == nil {
		return nil, errors.New("dyntax: rule reader is required")
	}
	return &Calculator{
		rules:  cfg.Rules,
		logger: cfg.Logger.With().Str("component", "dyntax").Logger(),
		stack:  cfg.Stack,
	}, nil
}

// HandleCartFees implements events.CartFeeHandler.
func (c *Calculator) HandleCartFees(ctx context.Context, ct *cart.Cart) error {
	return c.ApplyDynamicTaxes(ctx, ct)
}

// ApplyDynamicTaxes reads the rule and appends at most one fee to ct.
func (c *Calculator) ApplyDynamicTaxes(ctx context.Context, ct *cart.Cart) error {
	if ct == nil {
		return nil
	}
	rule, err := c.rules.ReadRule(ctx)
	if err != nil && !errors.Is(err, ErrMalformedRule) {
		// Keep the last good fee when the store is unreachable.
		return fmt.Errorf("dyntax: read rule: %w", err)
	}
	if !c.stack {
		ct.RemoveFees(FeeID)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("cart_id", ct.ID).Msg("dynamic tax rule ignored")
		obs.ObserveDynamicTax(obs.DynamicTaxMalformed)
		return nil
	}
	if !rule.Active() {
		obs.ObserveDynamicTax(obs.DynamicTaxInactive)
		return nil
	}

	matches := MatchCount(ct.Items(), *rule.CategoryID)
	if matches == 0 {
		obs.ObserveDynamicTax(obs.DynamicTaxNoMatch)
		return nil
	}

	fee := BuildFee(rule, matches)
	ct.AddFee(fee)
	obs.ObserveDynamicTax(obs.DynamicTaxApplied)
	c.logger.Debug().
		Str("cart_id", ct.ID).
		Int64("category_id", *rule.CategoryID).
		Int("matches", matches).
		Str("amount", fee.Amount.String()).
		Msg("dynamic tax applied")
	return nil
}

// MatchCount counts line items whose product is assigned to categoryID.
// Quantity is ignored; each matching line counts once.
func MatchCount(items []cart.Item, categoryID int64) int {
	count := 0
	for _, it := range items {
		if it.InCategory(categoryID) {
			count++
		}
	}
	return count
}

// BuildFee renders the fee line for matches items under rule.
func BuildFee(rule TaxRule, matches int) cart.Fee {
	return cart.Fee{
		ID:      FeeID,
		Label:   fmt.Sprintf("%d× %s", matches, rule.Name),
		Amount:  rule.Amount.Mul(decimal.NewFromInt(int64(matches))),
		Taxable: false,
	}
}
