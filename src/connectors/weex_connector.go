// REST API CLIENT FOR WEEX USDT-M FUTURES (/capi/v2)
// RESTY + INTERNAL RETRY + CLIENT SIDE THROTTLE (BOTH PER ATTEMPT)
package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"weexgateway/src/security"
)

// -----------------------------
// CONFIG
// -----------------------------
const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second

	DefaultBaseURL = "https://api-contract.weex.com"
	DefaultLocale  = "en-US"
)

// -----------------------------
// ENDPOINTS
// -----------------------------
const (
	PathServerTime   = "/capi/v2/market/time"
	PathTicker       = "/capi/v2/market/ticker"
	PathContracts    = "/capi/v2/market/contracts"
	PathDepth        = "/capi/v2/market/depth"
	PathFundingRate  = "/capi/v2/market/currentFundRate"
	PathOpenInterest = "/capi/v2/market/open_interest"

	PathAccounts     = "/capi/v2/account/getAccounts"
	PathAccount      = "/capi/v2/account/getAccount"
	PathAssets       = "/capi/v2/account/assets"
	PathAllPositions = "/capi/v2/account/position/allPosition"
	PathLeverage     = "/capi/v2/account/leverage"

	PathPlaceOrder     = "/capi/v2/order/placeOrder"
	PathCurrentOrders  = "/capi/v2/order/current"
	PathCancelOrder    = "/capi/v2/order/cancel_order"
	PathClosePositions = "/capi/v2/order/closePositions"
	PathPlaceTpSl      = "/capi/v2/order/placeTpSlOrder"
)

var ErrMissingCredentials = errors.New("weex: api key, secret and passphrase are required for signed endpoints")

// -----------------------------
// CLIENT
// -----------------------------
type Client struct {
	creds   security.Credentials
	baseURL string
	locale  string
	http    *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		// A POST may have reached the exchange before the connection failed.
		return r != nil && r.Request != nil && r.Request.Method != http.MethodPost
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	// 429 is rejected before the order book, so orders are safe to resend.
	if code == http.StatusTooManyRequests {
		return true
	}
	if r.Request != nil && r.Request.Method == http.MethodPost {
		return false
	}

	if code >= 500 && code <= 599 {
		return true
	}
	if code == http.StatusRequestTimeout {
		return true
	}
	return false
}

type signKey struct{}

// signTarget is what a signed request signs on every attempt.
type signTarget struct {
	path  string
	query string
	body  string
}

// beforeAttempt runs before every resty attempt, retries included, so each one
// waits for the throttle and carries a fresh timestamp and signature.
func (c *Client) beforeAttempt(_ *resty.Client, r *resty.Request) error {
	if err := c.limiter.Wait(r.Context()); err != nil {
		return fmt.Errorf("weex: rate limiter: %w", err)
	}
	if t, ok := r.Context().Value(signKey{}).(signTarget); ok {
		r.SetHeaders(security.SignedHeaders(c.creds, c.now(), r.Method, t.path, t.query, t.body))
	}
	return nil
}

func NewClient(apiKey, apiSecret, passphrase, baseURL string) *Client {
	retryCount := defaultRetryAttempts - 1

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	c := &Client{
		creds:   security.Credentials{APIKey: apiKey, APISecret: apiSecret, Passphrase: passphrase},
		baseURL: baseURL,
		locale:  DefaultLocale,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		now:     time.Now,
	}
	httpClient.OnBeforeRequest(c.beforeAttempt)
	return c
}

// NewClientFromConfig builds a client with the timeout, locale and throttle from cfg.
func NewClientFromConfig(cfg Config) *Client {
	c := NewClient(cfg.APIKey, cfg.APISecret, cfg.Passphrase, cfg.BaseURL)
	if cfg.Timeout > 0 {
		c.http.SetTimeout(cfg.Timeout)
	}
	if cfg.Locale != "" {
		c.locale = cfg.Locale
	}
	c.limiter = newLimiter(cfg.RateLimit, cfg.RateBurst)
	return c
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// HasCredentials reports whether signed endpoints can be called.
func (c *Client) HasCredentials() bool {
	return c.creds.Complete()
}

// buildQuery joins key/value pairs in the given order. The same string is signed and sent,
// so it must not be re-encoded by url.Values (which sorts keys).
func buildQuery(kv ...string) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		parts = append(parts, url.QueryEscape(kv[i])+"="+url.QueryEscape(kv[i+1]))
	}
	return strings.Join(parts, "&")
}

func (c *Client) doRequest(ctx context.Context, method, path, query string, body []byte, signed bool) (json.RawMessage, error) {
	if signed && !c.creds.Complete() {
		return nil, ErrMissingCredentials
	}

	if signed {
		ctx = context.WithValue(ctx, signKey{}, signTarget{path: path, query: query, body: string(body)})
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("locale", c.locale)

	if body != nil {
		req.SetBody(body)
	}

	target := path
	if query != "" {
		target += "?" + query
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, fmt.Errorf("weex: %s %s: %w", method, path, err)
	}

	raw := resp.Body()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Body: string(raw)}
		if env, ok := parseEnvelope(raw); ok {
			apiErr.Code = codeString(env.Code)
			apiErr.Msg = env.Msg
		}
		logger.WithFields(map[string]interface{}{
			"method": method,
			"path":   path,
			"status": resp.StatusCode(),
			"code":   apiErr.Code,
		}).Warn("WEEX request failed")
		return nil, apiErr
	}

	if env, ok := parseEnvelope(raw); ok {
		code := codeString(env.Code)
		if !successCodes[code] {
			return nil, &APIError{StatusCode: resp.StatusCode(), Code: code, Msg: env.Msg, Body: string(raw)}
		}
		return env.Data, nil
	}

	return raw, nil
}

func decodeInto[T any](raw json.RawMessage, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("weex: decode %T: %w", out, err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path, query string, signed bool) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, path, query, nil, signed)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("weex: encode body: %w", err)
	}
	return c.doRequest(ctx, http.MethodPost, path, "", b, true)
}

// -----------------------------
// A) MARKET DATA (PUBLIC)
// -----------------------------
func (c *Client) ServerTime(ctx context.Context) (ServerTime, error) {
	return decodeInto[ServerTime](c.get(ctx, PathServerTime, "", false))
}

func (c *Client) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	return decodeInto[Ticker](c.get(ctx, PathTicker, buildQuery("symbol", symbol), false))
}

// Contracts returns contract specs; an empty symbol lists all of them.
func (c *Client) Contracts(ctx context.Context, symbol string) ([]Contract, error) {
	return decodeInto[[]Contract](c.get(ctx, PathContracts, buildQuery("symbol", symbol), false))
}

func (c *Client) Depth(ctx context.Context, symbol string, limit int) (Depth, error) {
	lim := ""
	if limit > 0 {
		lim = fmt.Sprintf("%d", limit)
	}
	return decodeInto[Depth](c.get(ctx, PathDepth, buildQuery("symbol", symbol, "limit", lim), false))
}

func (c *Client) FundingRate(ctx context.Context, symbol string) ([]FundingRate, error) {
	return decodeInto[[]FundingRate](c.get(ctx, PathFundingRate, buildQuery("symbol", symbol), false))
}

func (c *Client) OpenInterest(ctx context.Context, symbol string) ([]OpenInterest, error) {
	return decodeInto[[]OpenInterest](c.get(ctx, PathOpenInterest, buildQuery("symbol", symbol), false))
}

// -----------------------------
// B) ACCOUNT (SIGNED)
// -----------------------------

// GetAccounts returns the raw account list; its shape differs between account modes.
func (c *Client) GetAccounts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, PathAccounts, "", true)
}

func (c *Client) GetAccount(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.get(ctx, PathAccount, buildQuery("symbol", symbol), true)
}

func (c *Client) Assets(ctx context.Context) ([]Asset, error) {
	return decodeInto[[]Asset](c.get(ctx, PathAssets, "", true))
}

func (c *Client) AllPositions(ctx context.Context) ([]Position, error) {
	return decodeInto[[]Position](c.get(ctx, PathAllPositions, "", true))
}

func (c *Client) SetLeverage(ctx context.Context, req SetLeverageRequest) (json.RawMessage, error) {
	if req.Symbol == "" {
		return nil, errors.New("weex: leverage requires a symbol")
	}
	return c.post(ctx, PathLeverage, req)
}

// -----------------------------
// C) ORDERS (SIGNED)
// -----------------------------
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error) {
	if req.Symbol == "" || req.Size == "" || req.Type == "" {
		return PlaceOrderResponse{}, errors.New("weex: order requires symbol, size and type")
	}
	if req.MatchPrice == MatchPriceLimit && req.Price == "" {
		return PlaceOrderResponse{}, errors.New("weex: limit order requires a price")
	}

	logger.WithFields(map[string]interface{}{
		"symbol":     req.Symbol,
		"client_oid": req.ClientOID,
		"size":       req.Size,
		"type":       req.Type,
		"order_type": req.OrderType,
	}).Info("Placing WEEX order")

	return decodeInto[PlaceOrderResponse](c.post(ctx, PathPlaceOrder, req))
}

func (c *Client) CurrentOrders(ctx context.Context, symbol string) ([]Order, error) {
	return decodeInto[[]Order](c.get(ctx, PathCurrentOrders, buildQuery("symbol", symbol), true))
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) (CancelOrderResponse, error) {
	if orderID == "" {
		return CancelOrderResponse{}, errors.New("weex: cancel requires an order id")
	}
	return decodeInto[CancelOrderResponse](c.post(ctx, PathCancelOrder, map[string]string{"orderId": orderID}))
}

// ClosePositions market-closes every position on symbol; an empty symbol closes all.
func (c *Client) ClosePositions(ctx context.Context, symbol string) ([]ClosePositionResult, error) {
	body := map[string]string{}
	if symbol != "" {
		body["symbol"] = symbol
	}

	logger.WithField("symbol", symbol).Info("Closing WEEX positions")

	results, err := decodeInto[[]ClosePositionResult](c.post(ctx, PathClosePositions, body))
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !r.Success {
			logger.WithFields(map[string]interface{}{
				"symbol":     symbol,
				"positionId": r.PositionID.String(),
				"error":      r.ErrorMessage,
			}).Error("Failed to close position")
		}
	}
	return results, nil
}

func (c *Client) PlaceTpSlOrder(ctx context.Context, req TpSlOrderRequest) ([]TpSlOrderResult, error) {
	if req.PlanType != PlanTypeProfit && req.PlanType != PlanTypeLoss {
		return nil, fmt.Errorf("weex: unknown plan type %q", req.PlanType)
	}
	if req.Symbol == "" || req.TriggerPrice == "" || req.Size == "" {
		return nil, errors.New("weex: tp/sl order requires symbol, trigger price and size")
	}
	if req.ExecutePrice == "" {
		req.ExecutePrice = "0"
	}
	return decodeInto[[]TpSlOrderResult](c.post(ctx, PathPlaceTpSl, req))
}
