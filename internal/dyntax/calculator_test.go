package dyntax_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-dyntax/internal/cart"
	"github.com/noah-isme/toko-dyntax/internal/dyntax"
	"github.com/noah-isme/toko-dyntax/internal/events"
)

func ruleFor(name, amount string, category int64) dyntax.TaxRule {
	return dyntax.TaxRule{Name: name, Amount: decimal.RequireFromString(amount), CategoryID: &category}
}

func fixedRule(rule dyntax.TaxRule) dyntax.RuleReader {
	return dyntax.RuleReaderFunc(func(context.Context) (dyntax.TaxRule, error) {
		return rule, nil
	})
}

func newCalculator(t *testing.T, rules dyntax.RuleReader, stack bool) *dyntax.Calculator {
	t.Helper()
	calc, err := dyntax.NewCalculator(dyntax.Config{Rules: rules, Logger: zerolog.Nop(), Stack: stack})
	require.NoError(t, err)
	return calc
}

func item(id string, qty int, categories ...int64) cart.Item {
	return cart.Item{ID: id, ProductID: "p-" + id, Title: id, Qty: qty, CategoryIDs: categories}
}

func mixedCart() *cart.Cart {
	return cart.New("cart-1", []cart.Item{
		item("A", 1, 5),
		item("B", 1, 7),
		item("C", 1, 5),
	})
}

func TestNewCalculatorRequiresReader(t *testing.T) {
	_, err := dyntax.NewCalculator(dyntax.Config{})
	require.Error(t, err)
}

func TestApplyDynamicTaxesCountsMatchingLines(t *testing.T) {
	calc := newCalculator(t, fixedRule(ruleFor("Eco Tax", "2.00", 5)), false)
	c := mixedCart()

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 1)
	require.Equal(t, "2× Eco Tax", fees[0].Label)
	require.True(t, fees[0].Amount.Equal(decimal.RequireFromString("4.00")))
	require.False(t, fees[0].Taxable)
	require.Equal(t, dyntax.FeeID, fees[0].ID)
}

func TestApplyDynamicTaxesSingleMatch(t *testing.T) {
	calc := newCalculator(t, fixedRule(ruleFor("X", "1.5", 9)), false)
	c := cart.New("cart-2", []cart.Item{item("only", 1, 9)})

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 1)
	require.Equal(t, "1× X", fees[0].Label)
	require.True(t, fees[0].Amount.Equal(decimal.RequireFromString("1.5")))
}

func TestApplyDynamicTaxesIgnoresQuantity(t *testing.T) {
	calc := newCalculator(t, fixedRule(ruleFor("Eco Tax", "2.00", 5)), false)
	c := cart.New("cart-3", []cart.Item{item("A", 10, 5), item("B", 3, 7)})

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 1)
	require.Equal(t, "1× Eco Tax", fees[0].Label)
	require.True(t, fees[0].Amount.Equal(decimal.RequireFromString("2")))
}

func TestApplyDynamicTaxesNoFee(t *testing.T) {
	cases := map[string]dyntax.TaxRule{
		"inactive rule":    {Name: "Eco Tax", Amount: decimal.RequireFromString("2")},
		"no matching item": ruleFor("Eco Tax", "2.00", 42),
	}
	for name, rule := range cases {
		t.Run(name, func(t *testing.T) {
			calc := newCalculator(t, fixedRule(rule), false)
			c := mixedCart()
			require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
			require.Empty(t, c.Fees())
		})
	}

	t.Run("empty cart", func(t *testing.T) {
		calc := newCalculator(t, fixedRule(ruleFor("Eco Tax", "2.00", 5)), false)
		c := cart.New("empty", nil)
		require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
		require.Empty(t, c.Fees())
	})
}

func TestApplyDynamicTaxesMalformedRuleAddsNoFee(t *testing.T) {
	reader := dyntax.RuleReaderFunc(func(context.Context) (dyntax.TaxRule, error) {
		return dyntax.RuleFromValues(map[string]string{
			dyntax.FieldName:     "Eco Tax",
			dyntax.FieldAmount:   "abc",
			dyntax.FieldCategory: "5",
		})
	})
	calc := newCalculator(t, reader, false)
	c := mixedCart()

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	require.Empty(t, c.Fees())
}

func TestApplyDynamicTaxesPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	reader := dyntax.RuleReaderFunc(func(context.Context) (dyntax.TaxRule, error) {
		return dyntax.TaxRule{}, boom
	})
	calc := newCalculator(t, reader, false)
	c := mixedCart()

	err := calc.ApplyDynamicTaxes(context.Background(), c)
	require.ErrorIs(t, err, boom)
	require.Empty(t, c.Fees())
}

func TestApplyDynamicTaxesKeepsFeeWhenStoreFails(t *testing.T) {
	fail := false
	reader := dyntax.RuleReaderFunc(func(context.Context) (dyntax.TaxRule, error) {
		if fail {
			return dyntax.TaxRule{}, errors.New("connection refused")
		}
		return ruleFor("Eco Tax", "2.00", 5), nil
	})
	calc := newCalculator(t, reader, false)
	c := mixedCart()

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	fail = true
	require.Error(t, calc.ApplyDynamicTaxes(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 1)
	require.Equal(t, "2× Eco Tax", fees[0].Label)
}

func TestApplyDynamicTaxesMalformedRuleDropsEarlierFee(t *testing.T) {
	malformed := false
	reader := dyntax.RuleReaderFunc(func(context.Context) (dyntax.TaxRule, error) {
		if malformed {
			return dyntax.TaxRule{}, dyntax.ErrMalformedRule
		}
		return ruleFor("Eco Tax", "2.00", 5), nil
	})
	calc := newCalculator(t, reader, false)
	c := mixedCart()

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	malformed = true
	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	require.Empty(t, c.Fees())
}

func TestApplyDynamicTaxesReplacesEarlierPass(t *testing.T) {
	calc := newCalculator(t, fixedRule(ruleFor("Eco Tax", "2.00", 5)), false)
	c := mixedCart()
	c.AddFee(cart.Fee{ID: "shipping", Label: "Handling", Amount: decimal.RequireFromString("3")})

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 2)
	require.Equal(t, "Handling", fees[0].Label)
	require.Equal(t, "2× Eco Tax", fees[1].Label)
}

func TestApplyDynamicTaxesStacksWhenConfigured(t *testing.T) {
	calc := newCalculator(t, fixedRule(ruleFor("Eco Tax", "2.00", 5)), true)
	c := mixedCart()

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 2)
	require.True(t, c.FeeTotal().Equal(decimal.RequireFromString("8")))
}

func TestApplyDynamicTaxesReadsRuleEachPass(t *testing.T) {
	category := int64(5)
	current := dyntax.TaxRule{Name: "Eco Tax", Amount: decimal.RequireFromString("2"), CategoryID: &category}
	reader := dyntax.RuleReaderFunc(func(context.Context) (dyntax.TaxRule, error) {
		return current, nil
	})
	calc := newCalculator(t, reader, false)
	c := mixedCart()

	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	require.Len(t, c.Fees(), 1)

	current.CategoryID = nil
	require.NoError(t, calc.ApplyDynamicTaxes(context.Background(), c))
	require.Empty(t, c.Fees())
}

func TestCalculatorRunsThroughHooks(t *testing.T) {
	hooks := &events.Hooks{}
	hooks.RegisterCartFeeHandler(newCalculator(t, fixedRule(ruleFor("Eco Tax", "0.50", 7)), false))
	c := mixedCart()

	require.NoError(t, hooks.CalculateFees(context.Background(), c))

	fees := c.Fees()
	require.Len(t, fees, 1)
	require.Equal(t, "1× Eco Tax", fees[0].Label)
	require.True(t, fees[0].Amount.Equal(decimal.RequireFromString("0.5")))
}

func TestMatchCount(t *testing.T) {
	items := []cart.Item{item("A", 1, 5, 7), item("B", 2, 7), item("C", 1)}
	require.Equal(t, 2, dyntax.MatchCount(items, 7))
	require.Equal(t, 1, dyntax.MatchCount(items, 5))
	require.Zero(t, dyntax.MatchCount(items, 9))
	require.Zero(t, dyntax.MatchCount(nil, 9))
}
