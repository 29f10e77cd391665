package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice    = errors.New("risk: price must be positive")
	ErrInvalidNotional = errors.New("risk: target notional must be positive")
	ErrNotionalTooHigh = errors.New("risk: notional exceeds configured cap")
)

// ----- config -----

type SizingConfig struct {
	TargetNotional decimal.Decimal // USDT we aim to spend per test order
	MaxNotional    decimal.Decimal // hard cap, zero disables it
	Precision      int32           // base coin decimals, 4 for BTC
	MinSize        decimal.Decimal // used when rounding yields zero
}

// DefaultSizingConfig aims at ~15 USDT with a 20 USDT ceiling.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		TargetNotional: decimal.NewFromInt(15),
		MaxNotional:    decimal.NewFromInt(20),
		Precision:      4,
		MinSize:        decimal.RequireFromString("0.0001"),
	}
}

// ----- public API -----

// Sizing is the outcome of SizeForNotional.
type Sizing struct {
	Size     decimal.Decimal // base coin amount to send as order size
	Notional decimal.Decimal // Size * Price
	Price    decimal.Decimal
}

// SizeForNotional converts a USDT notional into a base coin size at price.
// size = round(target / price, precision); a zero result becomes cfg.MinSize.
// The resulting notional is checked against cfg.MaxNotional.
func SizeForNotional(price decimal.Decimal, cfg SizingConfig) (Sizing, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return Sizing{}, ErrInvalidPrice
	}
	if cfg.TargetNotional.LessThanOrEqual(decimal.Zero) {
		return Sizing{}, ErrInvalidNotional
	}

	size := cfg.TargetNotional.Div(price).Round(cfg.Precision)
	if size.IsZero() {
		size = cfg.MinSize
	}

	s := Sizing{
		Size:     size,
		Notional: size.Mul(price),
		Price:    price,
	}

	if err := CheckNotional(s.Notional, cfg.MaxNotional); err != nil {
		return s, err
	}
	return s, nil
}

// CheckNotional fails when notional is above max. A zero max disables the check.
func CheckNotional(notional, max decimal.Decimal) error {
	if max.IsZero() {
		return nil
	}
	if notional.GreaterThan(max) {
		return fmt.Errorf("%w: %s > %s", ErrNotionalTooHigh, notional.StringFixed(2), max.StringFixed(2))
	}
	return nil
}
