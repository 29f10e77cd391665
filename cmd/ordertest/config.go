package ordertest

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Symbol         string          `envconfig:"ORDER_SYMBOL" default:"cmt_btcusdt"`
	TargetNotional decimal.Decimal `envconfig:"ORDER_TARGET_NOTIONAL" default:"15"`
	MaxNotional    decimal.Decimal `envconfig:"ORDER_MAX_NOTIONAL" default:"20"`
	SizePrecision  int32           `envconfig:"ORDER_SIZE_PRECISION" default:"4"`
	MinSize        decimal.Decimal `envconfig:"ORDER_MIN_SIZE" default:"0.0001"`
	FallbackPrice  decimal.Decimal `envconfig:"ORDER_FALLBACK_PRICE" default:"87000"`
	SettleWait     time.Duration   `envconfig:"ORDER_SETTLE_WAIT" default:"2s"`
	// order_type sent with the market open; 0 normal, 1 post only, 2 FOK, 3 IOC.
	ExecutionType string `envconfig:"ORDER_EXECUTION_TYPE" default:"1"`

	// Optional protective orders after the open; zero disables a leg.
	TakeProfitPct decimal.Decimal `envconfig:"ORDER_TP_PERCENT" default:"0"`
	StopLossPct   decimal.Decimal `envconfig:"ORDER_SL_PERCENT" default:"0"`
	PriceDecimals int32           `envconfig:"ORDER_PRICE_DECIMALS" default:"1"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
