package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Request headers used by WEEX authenticated endpoints.
const (
	HeaderAccessKey        = "ACCESS-KEY"
	HeaderAccessSign       = "ACCESS-SIGN"
	HeaderAccessPassphrase = "ACCESS-PASSPHRASE"
	HeaderAccessTimestamp  = "ACCESS-TIMESTAMP"
)

// Credentials is one API key triple issued by WEEX.
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

// Complete reports whether all three parts are present.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.Passphrase != ""
}

// Sign returns base64(HMAC-SHA256(secret, timestamp + METHOD + requestPath + body)).
// requestPath must already include "?query" when the query is part of the signature.
func Sign(secret, timestamp, method, requestPath, body string) string {
	message := timestamp + strings.ToUpper(method) + requestPath + body
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignPath builds the request path that goes into the signature.
func SignPath(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// Timestamp formats t as milliseconds since the epoch.
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// SignedHeaders produces the four authentication headers for one request.
// GET requests never sign a body; the query is only signed for GET.
func SignedHeaders(creds Credentials, now time.Time, method, path, rawQuery, body string) map[string]string {
	ts := Timestamp(now)

	signPath := path
	signBody := body
	if strings.EqualFold(method, "GET") {
		signPath = SignPath(path, rawQuery)
		signBody = ""
	}

	return map[string]string{
		HeaderAccessKey:        creds.APIKey,
		HeaderAccessSign:       Sign(creds.APISecret, ts, method, signPath, signBody),
		HeaderAccessPassphrase: creds.Passphrase,
		HeaderAccessTimestamp:  ts,
	}
}
