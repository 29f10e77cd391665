package connectors

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Num holds a numeric field that WEEX sends either quoted or bare.
type Num string

func (n *Num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Num(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("weex: not a number: %s", string(b))
	}
	*n = Num(num.String())
	return nil
}

func (n Num) String() string { return string(n) }

// Decimal parses the value; empty values are an error.
func (n Num) Decimal() (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, fmt.Errorf("weex: empty numeric field")
	}
	return decimal.NewFromString(string(n))
}

type ServerTime struct {
	Epoch     Num    `json:"epoch"`
	ISO       string `json:"iso"`
	Timestamp Num    `json:"timestamp"`
}

type Ticker struct {
	Symbol             string `json:"symbol"`
	Last               Num    `json:"last"`
	BestAsk            Num    `json:"best_ask"`
	BestBid            Num    `json:"best_bid"`
	High24h            Num    `json:"high_24h"`
	Low24h             Num    `json:"low_24h"`
	Volume24h          Num    `json:"volume_24h"`
	Timestamp          Num    `json:"timestamp"`
	PriceChangePercent Num    `json:"priceChangePercent"`
	BaseVolume         Num    `json:"base_volume"`
	MarkPrice          Num    `json:"markPrice"`
	IndexPrice         Num    `json:"indexPrice"`
}

type Contract struct {
	Symbol          string `json:"symbol"`
	UnderlyingIndex string `json:"underlying_index"`
	QuoteCurrency   string `json:"quote_currency"`
	Coin            string `json:"coin"`
	ContractVal     Num    `json:"contract_val"`
	SizeIncrement   Num    `json:"size_increment"`
	TickSize        Num    `json:"tick_size"`
	MinLeverage     Num    `json:"minLeverage"`
	MaxLeverage     Num    `json:"maxLeverage"`
	MakerFeeRate    Num    `json:"makerFeeRate"`
	TakerFeeRate    Num    `json:"takerFeeRate"`
	MinOrderSize    Num    `json:"minOrderSize"`
	MaxOrderSize    Num    `json:"maxOrderSize"`
	MaxPositionSize Num    `json:"maxPositionSize"`
}

// Depth levels are [price, size] pairs.
type Depth struct {
	Asks      [][]Num `json:"asks"`
	Bids      [][]Num `json:"bids"`
	Timestamp Num     `json:"timestamp"`
}

type FundingRate struct {
	Symbol       string `json:"symbol"`
	FundingRate  Num    `json:"fundingRate"`
	CollectCycle Num    `json:"collectCycle"`
	Timestamp    Num    `json:"timestamp"`
}

type OpenInterest struct {
	Symbol       string `json:"symbol"`
	BaseVolume   Num    `json:"base_volume"`
	TargetVolume Num    `json:"target_volume"`
	Timestamp    Num    `json:"timestamp"`
}

type Asset struct {
	CoinName     string `json:"coinName"`
	Available    Num    `json:"available"`
	Frozen       Num    `json:"frozen"`
	Equity       Num    `json:"equity"`
	UnrealizePnl Num    `json:"unrealizePnl"`
}

type Position struct {
	ID             Num    `json:"id"`
	Symbol         string `json:"symbol"`
	Side           string `json:"side"` // LONG or SHORT
	MarginMode     string `json:"margin_mode"`
	Leverage       Num    `json:"leverage"`
	Size           Num    `json:"size"`
	OpenValue      Num    `json:"open_value"`
	MarginSize     Num    `json:"marginSize"`
	UnrealizePnl   Num    `json:"unrealizePnl"`
	LiquidatePrice Num    `json:"liquidatePrice"`
	CreatedTime    Num    `json:"created_time"`
	UpdatedTime    Num    `json:"updated_time"`
}

type Order struct {
	Symbol       string `json:"symbol"`
	Size         Num    `json:"size"`
	ClientOID    string `json:"client_oid"`
	OrderID      Num    `json:"order_id"`
	CreateTime   Num    `json:"createTime"`
	FilledQty    Num    `json:"filled_qty"`
	Fee          Num    `json:"fee"`
	Price        Num    `json:"price"`
	PriceAvg     Num    `json:"price_avg"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	OrderType    string `json:"order_type"`
	TotalProfits Num    `json:"totalProfits"`
}

// Order direction codes for PlaceOrderRequest.Type.
const (
	OrderTypeOpenLong   = "1"
	OrderTypeOpenShort  = "2"
	OrderTypeCloseLong  = "3"
	OrderTypeCloseShort = "4"
)

// Execution codes for PlaceOrderRequest.OrderType.
const (
	ExecNormal            = "0"
	ExecPostOnly          = "1"
	ExecFillOrKill        = "2"
	ExecImmediateOrCancel = "3"
)

// Price mode for PlaceOrderRequest.MatchPrice.
const (
	MatchPriceLimit  = "0"
	MatchPriceMarket = "1"
)

// PlaceOrderRequest is the body of /capi/v2/order/placeOrder.
// Size is in base coin (BTC for cmt_btcusdt), not contracts.
type PlaceOrderRequest struct {
	Symbol                string `json:"symbol"`
	ClientOID             string `json:"client_oid"`
	Size                  string `json:"size"`
	Type                  string `json:"type"`
	OrderType             string `json:"order_type"`
	MatchPrice            string `json:"match_price"`
	Price                 string `json:"price,omitempty"`
	PresetTakeProfitPrice string `json:"presetTakeProfitPrice,omitempty"`
	PresetStopLossPrice   string `json:"presetStopLossPrice,omitempty"`
}

type PlaceOrderResponse struct {
	ClientOID string `json:"client_oid"`
	OrderID   Num    `json:"order_id"`
}

type CancelOrderResponse struct {
	OrderID   Num    `json:"order_id"`
	ClientOID string `json:"client_oid"`
	Result    bool   `json:"result"`
	ErrMsg    string `json:"err_msg"`
}

type ClosePositionResult struct {
	PositionID     Num    `json:"positionId"`
	SuccessOrderID Num    `json:"successOrderId"`
	ErrorMessage   string `json:"errorMessage"`
	Success        bool   `json:"success"`
}

// TP/SL plan types.
const (
	PlanTypeProfit = "profit_plan"
	PlanTypeLoss   = "loss_plan"
)

// TpSlOrderRequest is the body of /capi/v2/order/placeTpSlOrder.
// ExecutePrice "0" executes at market when triggered.
type TpSlOrderRequest struct {
	Symbol        string `json:"symbol"`
	ClientOrderID string `json:"clientOrderId"`
	PlanType      string `json:"planType"`
	TriggerPrice  string `json:"triggerPrice"`
	ExecutePrice  string `json:"executePrice"`
	Size          string `json:"size"`
	PositionSide  string `json:"positionSide"` // long or short
}

type TpSlOrderResult struct {
	OrderID Num  `json:"orderId"`
	Success bool `json:"success"`
}

// SetLeverageRequest is the body of /capi/v2/account/leverage.
type SetLeverageRequest struct {
	Symbol        string `json:"symbol"`
	MarginMode    int    `json:"marginMode"` // 1 cross, 3 isolated
	LongLeverage  string `json:"longLeverage"`
	ShortLeverage string `json:"shortLeverage"`
}
