package ordertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"weexgateway/src/connectors"
	"weexgateway/src/model"
	"weexgateway/src/risk"
	"weexgateway/src/tp_sl"
)

type exchange interface {
	Assets(ctx context.Context) ([]connectors.Asset, error)
	CurrentOrders(ctx context.Context, symbol string) ([]connectors.Order, error)
	AllPositions(ctx context.Context) ([]connectors.Position, error)
	Ticker(ctx context.Context, symbol string) (connectors.Ticker, error)
	PlaceOrder(ctx context.Context, req connectors.PlaceOrderRequest) (connectors.PlaceOrderResponse, error)
	ClosePositions(ctx context.Context, symbol string) ([]connectors.ClosePositionResult, error)
	PlaceTpSlOrder(ctx context.Context, req connectors.TpSlOrderRequest) ([]connectors.TpSlOrderResult, error)
}

type orderLogStore interface {
	Create(ctx context.Context, entry *model.OrderLog) error
	UpdateStatus(ctx context.Context, clientOID, status, exchangeOrderID string, errMsg *string) error
}

type exceptionRecorder interface {
	Record(ctx context.Context, service, module, method string, err error, fields map[string]interface{})
}

// OrderTest places one small market order (or closes positions) to check a live account end to end.
type OrderTest struct {
	Client     exchange
	Orders     orderLogStore
	Exceptions exceptionRecorder
	Out        io.Writer
	Config     Config

	Sleep func(time.Duration)
	Now   func() time.Time
}

func (o *OrderTest) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"cmd": "order", "symbol": o.Config.Symbol})
}

func (o *OrderTest) section(title string) {
	fmt.Fprintf(o.Out, "\n%s\n%s\n%s\n", strings.Repeat("=", 60), title, strings.Repeat("=", 60))
}

func (o *OrderTest) print(v interface{}, err error) {
	if err != nil {
		fmt.Fprintf(o.Out, "error: %v\n", err)
		return
	}
	pretty, mErr := json.MarshalIndent(v, "", "  ")
	if mErr != nil {
		fmt.Fprintf(o.Out, "%+v\n", v)
		return
	}
	fmt.Fprintf(o.Out, "%s\n", pretty)
}

func (o *OrderTest) record(ctx context.Context, method string, err error, fields map[string]interface{}) {
	if o.Exceptions != nil {
		o.Exceptions.Record(ctx, "cli", "ordertest", method, err, fields)
	}
}

// overview prints assets, open orders and positions. Failures are shown, not returned.
func (o *OrderTest) overview(ctx context.Context) {
	o.section("Account assets")
	assets, err := o.Client.Assets(ctx)
	o.print(assets, err)

	o.section("Current open orders")
	orders, err := o.Client.CurrentOrders(ctx, o.Config.Symbol)
	o.print(orders, err)

	o.section("Current positions")
	positions, err := o.Client.AllPositions(ctx)
	o.print(positions, err)
}

// Run executes the flow. With closeOnly it closes positions on the symbol instead of opening one.
func (o *OrderTest) Run(ctx context.Context, closeOnly bool) error {
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	o.overview(ctx)

	if closeOnly {
		return o.closePositions(ctx)
	}

	if o.Config.SettleWait > 0 {
		fmt.Fprintf(o.Out, "\nwaiting %s for settlement...\n", o.Config.SettleWait)
		o.Sleep(o.Config.SettleWait)
		o.section("Account assets")
		assets, err := o.Client.Assets(ctx)
		o.print(assets, err)
	}

	return o.openLong(ctx)
}

// referencePrice returns the ticker's last price, or the configured fallback when it is missing.
func (o *OrderTest) referencePrice(ctx context.Context) decimal.Decimal {
	ticker, err := o.Client.Ticker(ctx, o.Config.Symbol)
	if err != nil {
		o.log().WithError(err).Warn("ticker unavailable, using fallback price")
		return o.Config.FallbackPrice
	}
	last, err := ticker.Last.Decimal()
	if err != nil || !last.IsPositive() {
		o.log().WithField("last", ticker.Last.String()).Warn("ticker has no last price, using fallback price")
		return o.Config.FallbackPrice
	}
	return last
}

func newClientOID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (o *OrderTest) openLong(ctx context.Context) error {
	if o.Config.ExecutionType == "" {
		o.Config.ExecutionType = connectors.ExecNormal
	}
	price := o.referencePrice(ctx)

	sizing, err := risk.SizeForNotional(price, risk.SizingConfig{
		TargetNotional: o.Config.TargetNotional,
		MaxNotional:    o.Config.MaxNotional,
		Precision:      o.Config.SizePrecision,
		MinSize:        o.Config.MinSize,
	})
	if err != nil {
		o.record(ctx, "SizeForNotional", err, map[string]interface{}{"price": price.String()})
		return fmt.Errorf("order sizing: %w", err)
	}

	fmt.Fprintf(o.Out, "\nreference price: %s\n", price.String())
	fmt.Fprintf(o.Out, "target notional: %s USDT\n", o.Config.TargetNotional.String())
	fmt.Fprintf(o.Out, "size: %s\n", sizing.Size.String())
	fmt.Fprintf(o.Out, "notional: ~%s USDT\n", sizing.Notional.StringFixed(2))

	req := connectors.PlaceOrderRequest{
		Symbol:     o.Config.Symbol,
		ClientOID:  newClientOID("test_"),
		Size:       sizing.Size.String(),
		Type:       connectors.OrderTypeOpenLong,
		OrderType:  o.Config.ExecutionType,
		MatchPrice: connectors.MatchPriceMarket,
	}

	entry := &model.OrderLog{
		ClientOID:   req.ClientOID,
		Symbol:      req.Symbol,
		Type:        req.Type,
		OrderType:   req.OrderType,
		Size:        req.Size,
		Price:       price.String(),
		Notional:    sizing.Notional.String(),
		Status:      model.OrderLogStatusPending,
		RequestedAt: o.Now().UTC(),
	}
	if err := o.Orders.Create(ctx, entry); err != nil {
		return fmt.Errorf("order log: %w", err)
	}

	o.section("Placing order")
	o.print(req, nil)

	resp, err := o.Client.PlaceOrder(ctx, req)
	if err != nil {
		status := model.OrderLogStatusError
		var apiErr *connectors.APIError
		if errors.As(err, &apiErr) {
			status = model.OrderLogStatusRejected
		}
		msg := err.Error()
		if uErr := o.Orders.UpdateStatus(ctx, req.ClientOID, status, "", &msg); uErr != nil {
			o.log().WithError(uErr).Error("failed to update order log")
		}
		o.record(ctx, "PlaceOrder", err, map[string]interface{}{"client_oid": req.ClientOID, "size": req.Size})
		o.print(nil, err)
		return fmt.Errorf("place order: %w", err)
	}

	if err := o.Orders.UpdateStatus(ctx, req.ClientOID, model.OrderLogStatusAccepted, resp.OrderID.String(), nil); err != nil {
		o.log().WithError(err).Error("failed to update order log")
	}
	o.print(resp, nil)

	return o.protect(ctx, price, sizing.Size)
}

// protect places take-profit / stop-loss orders for the new long when configured.
func (o *OrderTest) protect(ctx context.Context, entry, size decimal.Decimal) error {
	if !o.Config.TakeProfitPct.IsPositive() && !o.Config.StopLossPct.IsPositive() {
		return nil
	}

	triggers, err := tp_sl.TriggerPrices(tp_sl.SideLong, entry, o.Config.TakeProfitPct, o.Config.StopLossPct, o.Config.PriceDecimals)
	if err != nil {
		return fmt.Errorf("tp/sl: %w", err)
	}

	var failed error
	for _, req := range tp_sl.BuildOrders(o.Config.Symbol, tp_sl.SideLong, size, triggers) {
		o.section("Placing " + req.PlanType + " at " + req.TriggerPrice)
		res, err := o.Client.PlaceTpSlOrder(ctx, req)
		o.print(res, err)
		if err != nil {
			o.record(ctx, "PlaceTpSlOrder", err, map[string]interface{}{"plan_type": req.PlanType, "trigger": req.TriggerPrice})
			failed = errors.Join(failed, fmt.Errorf("%s: %w", req.PlanType, err))
		}
	}
	return failed
}

func (o *OrderTest) closePositions(ctx context.Context) error {
	o.section("Closing positions")
	results, err := o.Client.ClosePositions(ctx, o.Config.Symbol)
	o.print(results, err)
	if err != nil {
		o.record(ctx, "ClosePositions", err, map[string]interface{}{"symbol": o.Config.Symbol})
		return fmt.Errorf("close positions: %w", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
		o.logClose(ctx, r)
	}
	if failed > 0 {
		err := fmt.Errorf("close positions: %d of %d failed", failed, len(results))
		o.record(ctx, "ClosePositions", err, map[string]interface{}{"symbol": o.Config.Symbol})
		return err
	}
	return nil
}

// logClose stores one closePositions result in the order log. WEEX picks the
// close side itself, so Type stays empty.
func (o *OrderTest) logClose(ctx context.Context, r connectors.ClosePositionResult) {
	entry := &model.OrderLog{
		ClientOID:       newClientOID("close_"),
		Symbol:          o.Config.Symbol,
		ExchangeOrderID: r.SuccessOrderID.String(),
		Status:          model.OrderLogStatusClosed,
		RequestedAt:     o.Now().UTC(),
	}
	if !r.Success {
		msg := fmt.Sprintf("position %s: %s", r.PositionID.String(), r.ErrorMessage)
		entry.Status = model.OrderLogStatusRejected
		entry.ExchangeOrderID = ""
		entry.ErrorMessage = &msg
	}
	if err := o.Orders.Create(ctx, entry); err != nil {
		o.log().WithError(err).Error("failed to write close order log")
	}
}
