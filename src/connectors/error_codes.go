package connectors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// WeexStatusCodes maps the HTTP statuses documented for every WEEX endpoint.
var WeexStatusCodes = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",           // Invalid parameter or malformed body
	http.StatusUnauthorized:        "UNAUTHORIZED",          // Missing/invalid key, signature, passphrase or stale timestamp
	http.StatusForbidden:           "FORBIDDEN",             // Key lacks permission or IP not whitelisted
	http.StatusTooManyRequests:     "TOO_MANY_REQUESTS",     // Rate limit hit, retry later
	http.StatusInternalServerError: "INTERNAL_SERVER_ERROR", // Exchange side failure
}

// GetStatusText returns a short name for a documented WEEX HTTP status.
func GetStatusText(status int) string {
	if msg, ok := WeexStatusCodes[status]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_WEEX_STATUS_%d", status)
}

// success codes seen in the WEEX envelope
var successCodes = map[string]bool{
	"":      true,
	"0":     true,
	"00000": true,
	"200":   true,
}

// APIError is returned for non-2xx responses and for envelopes carrying an error code.
type APIError struct {
	StatusCode int
	Code       string
	Msg        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" || e.Msg != "" {
		return fmt.Sprintf("weex: HTTP %d (%s): code=%s msg=%s", e.StatusCode, GetStatusText(e.StatusCode), e.Code, e.Msg)
	}
	return fmt.Sprintf("weex: HTTP %d (%s): %s", e.StatusCode, GetStatusText(e.StatusCode), e.Body)
}

// Retryable reports whether repeating the same request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// IsRateLimited reports whether err is a WEEX 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// envelope is the business wrapper WEEX uses for errors and some successes.
type envelope struct {
	Code        json.RawMessage `json:"code"`
	Msg         string          `json:"msg"`
	RequestTime json.RawMessage `json:"requestTime"`
	Data        json.RawMessage `json:"data"`
}

// codeString accepts both "40001" and 40001.
func codeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseEnvelope reports ok=false when raw is not a JSON object carrying a code.
func parseEnvelope(raw []byte) (env envelope, ok bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return env, false
	}
	if _, hasCode := probe["code"]; !hasCode {
		return env, false
	}
	if _, hasMsg := probe["msg"]; !hasMsg {
		if _, hasData := probe["data"]; !hasData {
			return env, false
		}
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, false
	}
	return env, true
}
