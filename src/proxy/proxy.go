package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"weexgateway/src/catalog"
	"weexgateway/src/model"
	"weexgateway/src/security"
)

// Rate limit headers WEEX returns and the proxy hands back to the caller.
var rateLimitHeaders = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}

type journal interface {
	Create(ctx context.Context, entry *model.ProxyRequestLog) error
}

// Proxy forwards /capi requests to WEEX, signing them with the caller's credentials.
// Callers pass their API secret in ACCESS-SIGN; the proxy replaces it with the signature.
type Proxy struct {
	http    *resty.Client
	catalog *catalog.Catalog
	metrics *Metrics
	journal journal
	locale  string

	serverCreds    security.Credentials
	useServerCreds bool

	now func() time.Time
}

type Option func(*Proxy)

func WithMetrics(m *Metrics) Option {
	return func(p *Proxy) { p.metrics = m }
}

func WithJournal(j journal) Option {
	return func(p *Proxy) { p.journal = j }
}

// WithServerCredentials signs requests that arrive without any credentials.
func WithServerCredentials(creds security.Credentials) Option {
	return func(p *Proxy) {
		p.serverCreds = creds
		p.useServerCreds = creds.Complete()
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Proxy) { p.now = now }
}

func New(cfg Config, cat *catalog.Catalog, opts ...Option) *Proxy {
	upstream := strings.TrimRight(cfg.UpstreamURL, "/")
	if upstream == "" {
		upstream = "https://api-contract.weex.com"
	}
	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	locale := cfg.DefaultLocale
	if locale == "" {
		locale = "en-US"
	}

	// No retries: the caller sees exactly what WEEX answered.
	httpClient := resty.New().
		SetBaseURL(upstream).
		SetTimeout(timeout)

	p := &Proxy{
		http:    httpClient,
		catalog: cat,
		locale:  locale,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type errorBody struct {
	Code        string      `json:"code"`
	Msg         string      `json:"msg"`
	RequestTime *int64      `json:"requestTime"`
	Data        interface{} `json:"data"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Code: fmt.Sprint(status), Msg: msg}); err != nil {
		logger.WithError(err).Error("failed to encode proxy error response")
	}
}

// transportReason strips the method and URL that net/http prepends to dial errors.
func transportReason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

type outcome struct {
	status        int
	authenticated bool
	errMsg        string
	rateRemaining string
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.EscapedPath()
	group := string(catalog.GroupUnknown)

	if p.catalog != nil {
		if ep, ok := p.catalog.Lookup(r.URL.Path); ok {
			group = string(ep.Group)
			if !strings.EqualFold(ep.Method, r.Method) {
				writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed for %s, use %s", r.Method, r.URL.Path, ep.Method))
				p.finish(r, group, start, outcome{status: http.StatusMethodNotAllowed, errMsg: "method not allowed"})
				return
			}
		}
	}

	res := p.forward(w, r, path)
	p.finish(r, group, start, res)
}

func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, path string) outcome {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		p.metrics.failure("proxy")
		writeError(w, http.StatusInternalServerError, "Proxy error: "+err.Error())
		return outcome{status: http.StatusInternalServerError, errMsg: err.Error()}
	}

	creds := security.Credentials{
		APIKey:     r.Header.Get(security.HeaderAccessKey),
		APISecret:  r.Header.Get(security.HeaderAccessSign),
		Passphrase: r.Header.Get(security.HeaderAccessPassphrase),
	}
	if creds == (security.Credentials{}) && p.useServerCreds {
		creds = p.serverCreds
	}

	locale := r.Header.Get("locale")
	if locale == "" {
		locale = p.locale
	}

	req := p.http.R().
		SetContext(r.Context()).
		SetHeader("Content-Type", "application/json").
		SetHeader("locale", locale)

	authenticated := creds.Complete()
	if authenticated {
		req.SetHeaders(security.SignedHeaders(creds, p.now(), r.Method, path, r.URL.RawQuery, string(body)))
		logger.WithFields(map[string]interface{}{
			"method":    r.Method,
			"path":      path,
			"sign_path": security.SignPath(path, r.URL.RawQuery),
		}).Debug("signing proxied request")
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	target := path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	resp, err := req.Execute(r.Method, target)
	if err != nil {
		reason := transportReason(err)
		p.metrics.failure("upstream")
		writeError(w, http.StatusBadGateway, "Failed to connect to WEEX API: "+reason)
		return outcome{status: http.StatusBadGateway, authenticated: authenticated, errMsg: reason}
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	for _, name := range rateLimitHeaders {
		if v := resp.Header().Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}

	w.WriteHeader(resp.StatusCode())
	if _, err := w.Write(resp.Body()); err != nil {
		logger.WithError(err).Warn("failed to write proxied response")
	}

	res := outcome{
		status:        resp.StatusCode(),
		authenticated: authenticated,
		rateRemaining: resp.Header().Get("X-RateLimit-Remaining"),
	}
	if res.status >= http.StatusBadRequest {
		res.errMsg = truncate(string(resp.Body()), 200)
	}
	return res
}

func (p *Proxy) finish(r *http.Request, group string, start time.Time, res outcome) {
	elapsed := time.Since(start)
	p.metrics.observe(group, r.Method, res.status, elapsed)

	fields := logger.Fields{
		"method":        r.Method,
		"path":          r.URL.Path,
		"group":         group,
		"status":        res.status,
		"authenticated": res.authenticated,
		"duration_ms":   elapsed.Milliseconds(),
	}
	switch {
	case res.status >= http.StatusInternalServerError:
		logger.WithFields(fields).WithField("error", res.errMsg).Error("proxy request failed")
	case res.status >= http.StatusBadRequest:
		logger.WithFields(fields).WithField("error", res.errMsg).Warn("proxy request rejected")
	default:
		logger.WithFields(fields).Info("proxy request")
	}

	if p.journal == nil {
		return
	}
	entry := &model.ProxyRequestLog{
		Method:             r.Method,
		Path:               r.URL.Path,
		Query:              r.URL.RawQuery,
		EndpointGroup:      group,
		Authenticated:      res.authenticated,
		Status:             res.status,
		DurationMs:         elapsed.Milliseconds(),
		RateLimitRemaining: res.rateRemaining,
	}
	if res.errMsg != "" {
		msg := res.errMsg
		entry.Error = &msg
	}
	// The response is already written; a disconnecting client must not cancel the insert.
	if err := p.journal.Create(context.WithoutCancel(r.Context()), entry); err != nil {
		logger.WithError(err).Warn("failed to journal proxy request")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
