package tp_sl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weexgateway/src/connectors"
)

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

var hundred = decimal.NewFromInt(100)

// Triggers holds the trigger prices; a zero value means that leg is not set.
type Triggers struct {
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// TriggerPrices derives TP/SL trigger prices from an entry price and percentages.
//
// Long:  TP = entry * (1 + tp%), SL = entry * (1 - sl%)
// Short: TP = entry * (1 - tp%), SL = entry * (1 + sl%)
//
// Prices are rounded to tickDecimals. A zero percentage omits that leg; a
// requested leg that rounds to zero is an error.
func TriggerPrices(side Side, entry, tpPct, slPct decimal.Decimal, tickDecimals int32) (Triggers, error) {
	if entry.LessThanOrEqual(decimal.Zero) {
		return Triggers{}, errors.New("tp_sl: entry price must be positive")
	}
	if tpPct.IsNegative() || slPct.IsNegative() {
		return Triggers{}, errors.New("tp_sl: percentages must not be negative")
	}

	up := func(pct decimal.Decimal) decimal.Decimal {
		return entry.Mul(hundred.Add(pct)).Div(hundred).Round(tickDecimals)
	}
	down := func(pct decimal.Decimal) decimal.Decimal {
		return entry.Mul(hundred.Sub(pct)).Div(hundred).Round(tickDecimals)
	}

	var out Triggers
	switch side {
	case SideLong:
		if slPct.GreaterThanOrEqual(hundred) {
			return Triggers{}, errors.New("tp_sl: long stop loss must be below 100%")
		}
		if tpPct.IsPositive() {
			out.TakeProfit = up(tpPct)
		}
		if slPct.IsPositive() {
			out.StopLoss = down(slPct)
		}
	case SideShort:
		if tpPct.GreaterThanOrEqual(hundred) {
			return Triggers{}, errors.New("tp_sl: short take profit must be below 100%")
		}
		if tpPct.IsPositive() {
			out.TakeProfit = down(tpPct)
		}
		if slPct.IsPositive() {
			out.StopLoss = up(slPct)
		}
	default:
		return Triggers{}, fmt.Errorf("tp_sl: unknown side %q", side)
	}

	if tpPct.IsPositive() && !out.TakeProfit.IsPositive() {
		return Triggers{}, fmt.Errorf("tp_sl: take profit rounds to %s at %d decimals", out.TakeProfit, tickDecimals)
	}
	if slPct.IsPositive() && !out.StopLoss.IsPositive() {
		return Triggers{}, fmt.Errorf("tp_sl: stop loss rounds to %s at %d decimals", out.StopLoss, tickDecimals)
	}
	return out, nil
}

// BuildOrders turns triggers into placeTpSlOrder requests, market executed when hit.
func BuildOrders(symbol string, side Side, size decimal.Decimal, t Triggers) []connectors.TpSlOrderRequest {
	var reqs []connectors.TpSlOrderRequest

	add := func(planType string, price decimal.Decimal) {
		reqs = append(reqs, connectors.TpSlOrderRequest{
			Symbol:        symbol,
			ClientOrderID: newClientOrderID(planType),
			PlanType:      planType,
			TriggerPrice:  price.String(),
			ExecutePrice:  "0",
			Size:          size.String(),
			PositionSide:  string(side),
		})
	}

	if t.TakeProfit.IsPositive() {
		add(connectors.PlanTypeProfit, t.TakeProfit)
	}
	if t.StopLoss.IsPositive() {
		add(connectors.PlanTypeLoss, t.StopLoss)
	}
	return reqs
}

// tp<uuid hex> or sl<uuid hex>
func newClientOrderID(planType string) string {
	prefix := "tp"
	if planType == connectors.PlanTypeLoss {
		prefix = "sl"
	}
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
