package ordertest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"weexgateway/src/connectors"
	"weexgateway/src/model"
	"weexgateway/src/repository"
)

type fakeExchange struct {
	ticker     connectors.Ticker
	tickerErr  error
	placeErr   error
	closeRes   []connectors.ClosePositionResult
	closeErr   error
	tpslErr    error
	placed     []connectors.PlaceOrderRequest
	tpsl       []connectors.TpSlOrderRequest
	closedWith []string
}

func (f *fakeExchange) Assets(context.Context) ([]connectors.Asset, error) {
	return []connectors.Asset{{CoinName: "USDT", Available: "100"}}, nil
}

func (f *fakeExchange) CurrentOrders(context.Context, string) ([]connectors.Order, error) {
	return nil, nil
}

func (f *fakeExchange) AllPositions(context.Context) ([]connectors.Position, error) {
	return nil, errors.New("positions unavailable")
}

func (f *fakeExchange) Ticker(context.Context, string) (connectors.Ticker, error) {
	return f.ticker, f.tickerErr
}

func (f *fakeExchange) PlaceOrder(_ context.Context, req connectors.PlaceOrderRequest) (connectors.PlaceOrderResponse, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return connectors.PlaceOrderResponse{}, f.placeErr
	}
	return connectors.PlaceOrderResponse{ClientOID: req.ClientOID, OrderID: "596471064624628269"}, nil
}

func (f *fakeExchange) ClosePositions(_ context.Context, symbol string) ([]connectors.ClosePositionResult, error) {
	f.closedWith = append(f.closedWith, symbol)
	return f.closeRes, f.closeErr
}

func (f *fakeExchange) PlaceTpSlOrder(_ context.Context, req connectors.TpSlOrderRequest) ([]connectors.TpSlOrderResult, error) {
	f.tpsl = append(f.tpsl, req)
	if f.tpslErr != nil {
		return nil, f.tpslErr
	}
	return []connectors.TpSlOrderResult{{OrderID: "1", Success: true}}, nil
}

type recordedException struct {
	method string
	err    error
}

type fakeExceptions struct {
	recorded []recordedException
}

func (f *fakeExceptions) Record(_ context.Context, _, _, method string, err error, _ map[string]interface{}) {
	f.recorded = append(f.recorded, recordedException{method: method, err: err})
}

func testConfig() Config {
	return Config{
		Symbol:         "cmt_btcusdt",
		TargetNotional: decimal.NewFromInt(15),
		MaxNotional:    decimal.NewFromInt(20),
		SizePrecision:  4,
		MinSize:        decimal.RequireFromString("0.0001"),
		FallbackPrice:  decimal.NewFromInt(87000),
		SettleWait:     2 * time.Second,
		ExecutionType:  "1",
		PriceDecimals:  1,
	}
}

func newOrderRepo(t *testing.T) (*repository.OrderLogRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.OrderLog{}))
	return (&repository.OrderLogRepository{}).WithDB(db), db
}

func newOrderTest(t *testing.T, ex *fakeExchange) (*OrderTest, *repository.OrderLogRepository, *fakeExceptions, *[]time.Duration) {
	t.Helper()
	repo, _ := newOrderRepo(t)
	exc := &fakeExceptions{}
	var slept []time.Duration
	o := &OrderTest{
		Client:     ex,
		Orders:     repo,
		Exceptions: exc,
		Out:        &bytes.Buffer{},
		Config:     testConfig(),
		Sleep:      func(d time.Duration) { slept = append(slept, d) },
		Now:        func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return o, repo, exc, &slept
}

func TestOpenLongUsesTickerPrice(t *testing.T) {
	ex := &fakeExchange{ticker: connectors.Ticker{Last: "100000"}}
	o, repo, exc, slept := newOrderTest(t, ex)

	require.NoError(t, o.Run(context.Background(), false))

	require.Len(t, ex.placed, 1)
	req := ex.placed[0]
	assert.Equal(t, "cmt_btcusdt", req.Symbol)
	assert.Equal(t, "0.0002", req.Size)
	assert.Equal(t, connectors.OrderTypeOpenLong, req.Type)
	assert.Equal(t, "1", req.OrderType)
	assert.Equal(t, connectors.MatchPriceMarket, req.MatchPrice)
	assert.True(t, strings.HasPrefix(req.ClientOID, "test_"))
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
	assert.Empty(t, ex.tpsl)
	assert.Empty(t, exc.recorded)

	entry, err := repo.FindByClientOID(context.Background(), req.ClientOID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.OrderLogStatusAccepted, entry.Status)
	assert.Equal(t, "596471064624628269", entry.ExchangeOrderID)
	assert.Equal(t, "100000", entry.Price)
	assert.Equal(t, "20", entry.Notional)
}

func TestOpenLongFallsBackWhenLastMissing(t *testing.T) {
	for name, ex := range map[string]*fakeExchange{
		"empty last":   {ticker: connectors.Ticker{}},
		"ticker error": {tickerErr: errors.New("down")},
	} {
		t.Run(name, func(t *testing.T) {
			o, repo, _, _ := newOrderTest(t, ex)

			require.NoError(t, o.Run(context.Background(), false))
			require.Len(t, ex.placed, 1)
			// 15 / 87000 = 0.000172... -> 0.0002
			assert.Equal(t, "0.0002", ex.placed[0].Size)

			entry, err := repo.FindByClientOID(context.Background(), ex.placed[0].ClientOID)
			require.NoError(t, err)
			assert.Equal(t, "87000", entry.Price)
		})
	}
}

func TestOpenLongRejectedByExchange(t *testing.T) {
	ex := &fakeExchange{
		ticker:   connectors.Ticker{Last: "87000"},
		placeErr: &connectors.APIError{StatusCode: http.StatusBadRequest, Code: "40015", Msg: "insufficient balance"},
	}
	o, repo, exc, _ := newOrderTest(t, ex)

	err := o.Run(context.Background(), false)
	require.Error(t, err)

	entry, findErr := repo.FindByClientOID(context.Background(), ex.placed[0].ClientOID)
	require.NoError(t, findErr)
	assert.Equal(t, model.OrderLogStatusRejected, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "insufficient balance")

	require.Len(t, exc.recorded, 1)
	assert.Equal(t, "PlaceOrder", exc.recorded[0].method)
}

func TestOpenLongTransportError(t *testing.T) {
	ex := &fakeExchange{ticker: connectors.Ticker{Last: "87000"}, placeErr: errors.New("connection reset")}
	o, repo, _, _ := newOrderTest(t, ex)

	require.Error(t, o.Run(context.Background(), false))

	entry, err := repo.FindByClientOID(context.Background(), ex.placed[0].ClientOID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderLogStatusError, entry.Status)
}

func TestOpenLongAboveCapIsNotSent(t *testing.T) {
	ex := &fakeExchange{ticker: connectors.Ticker{Last: "87000"}}
	o, _, exc, _ := newOrderTest(t, ex)
	o.Config.TargetNotional = decimal.NewFromInt(50)

	require.Error(t, o.Run(context.Background(), false))
	assert.Empty(t, ex.placed)
	require.Len(t, exc.recorded, 1)
	assert.Equal(t, "SizeForNotional", exc.recorded[0].method)
}

func TestOpenLongPlacesTpSl(t *testing.T) {
	ex := &fakeExchange{ticker: connectors.Ticker{Last: "100000"}}
	o, _, _, _ := newOrderTest(t, ex)
	o.Config.TakeProfitPct = decimal.NewFromInt(2)
	o.Config.StopLossPct = decimal.NewFromInt(1)

	require.NoError(t, o.Run(context.Background(), false))

	require.Len(t, ex.tpsl, 2)
	assert.Equal(t, connectors.PlanTypeProfit, ex.tpsl[0].PlanType)
	assert.Equal(t, "102000", ex.tpsl[0].TriggerPrice)
	assert.Equal(t, connectors.PlanTypeLoss, ex.tpsl[1].PlanType)
	assert.Equal(t, "99000", ex.tpsl[1].TriggerPrice)
	assert.Equal(t, "0.0002", ex.tpsl[1].Size)
}

func TestOpenLongTpSlFailureIsReported(t *testing.T) {
	ex := &fakeExchange{ticker: connectors.Ticker{Last: "100000"}, tpslErr: errors.New("plan rejected")}
	o, _, exc, _ := newOrderTest(t, ex)
	o.Config.StopLossPct = decimal.NewFromInt(1)

	err := o.Run(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan rejected")
	require.Len(t, exc.recorded, 1)
	assert.Equal(t, "PlaceTpSlOrder", exc.recorded[0].method)
}

func TestClosePositions(t *testing.T) {
	t.Run("all closed", func(t *testing.T) {
		ex := &fakeExchange{closeRes: []connectors.ClosePositionResult{{PositionID: "1", SuccessOrderID: "700", Success: true}}}
		o, _, _, slept := newOrderTest(t, ex)
		repo, db := newOrderRepo(t)
		o.Orders = repo

		require.NoError(t, o.Run(context.Background(), true))
		assert.Equal(t, []string{"cmt_btcusdt"}, ex.closedWith)
		assert.Empty(t, ex.placed)
		assert.Empty(t, *slept)

		var logs []model.OrderLog
		require.NoError(t, db.Find(&logs).Error)
		require.Len(t, logs, 1)
		assert.Equal(t, model.OrderLogStatusClosed, logs[0].Status)
		assert.Equal(t, "700", logs[0].ExchangeOrderID)
		assert.Equal(t, "cmt_btcusdt", logs[0].Symbol)
		assert.True(t, strings.HasPrefix(logs[0].ClientOID, "close_"))
	})

	t.Run("partial failure", func(t *testing.T) {
		ex := &fakeExchange{closeRes: []connectors.ClosePositionResult{
			{PositionID: "1", SuccessOrderID: "700", Success: true},
			{PositionID: "2", Success: false, ErrorMessage: "position not found"},
		}}
		o, _, exc, _ := newOrderTest(t, ex)
		repo, db := newOrderRepo(t)
		o.Orders = repo

		err := o.Run(context.Background(), true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 failed")
		assert.Len(t, exc.recorded, 1)

		var rejected model.OrderLog
		require.NoError(t, db.Where("status = ?", model.OrderLogStatusRejected).First(&rejected).Error)
		require.NotNil(t, rejected.ErrorMessage)
		assert.Equal(t, "position 2: position not found", *rejected.ErrorMessage)
		assert.Empty(t, rejected.ExchangeOrderID)

		var count int64
		require.NoError(t, db.Model(&model.OrderLog{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("request error", func(t *testing.T) {
		ex := &fakeExchange{closeErr: errors.New("timeout")}
		o, _, _, _ := newOrderTest(t, ex)

		require.Error(t, o.Run(context.Background(), true))
	})
}
