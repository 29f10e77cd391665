package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectedSig(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSign(t *testing.T) {
	got := Sign("secret", "1700000000000", "post", "/capi/v2/order/placeOrder", `{"symbol":"cmt_btcusdt"}`)
	want := expectedSig("secret", `1700000000000POST/capi/v2/order/placeOrder{"symbol":"cmt_btcusdt"}`)
	assert.Equal(t, want, got)
}

func TestSignPath(t *testing.T) {
	assert.Equal(t, "/capi/v2/order/current", SignPath("/capi/v2/order/current", ""))
	assert.Equal(t, "/capi/v2/account/getAccount?symbol=cmt_btcusdt", SignPath("/capi/v2/account/getAccount", "symbol=cmt_btcusdt"))
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	assert.Equal(t, "1704164645006", Timestamp(ts))
}

func TestSignedHeaders(t *testing.T) {
	creds := Credentials{APIKey: "key", APISecret: "secret", Passphrase: "pass"}
	now := time.UnixMilli(1700000000000)

	t.Run("get signs path and query without body", func(t *testing.T) {
		h := SignedHeaders(creds, now, "GET", "/capi/v2/account/getAccount", "symbol=cmt_btcusdt", "ignored")
		require.Equal(t, "key", h[HeaderAccessKey])
		require.Equal(t, "pass", h[HeaderAccessPassphrase])
		require.Equal(t, "1700000000000", h[HeaderAccessTimestamp])
		assert.Equal(t, expectedSig("secret", "1700000000000GET/capi/v2/account/getAccount?symbol=cmt_btcusdt"), h[HeaderAccessSign])
	})

	t.Run("post signs path and body without query", func(t *testing.T) {
		h := SignedHeaders(creds, now, "POST", "/capi/v2/order/closePositions", "x=1", `{"symbol":"cmt_btcusdt"}`)
		assert.Equal(t, expectedSig("secret", `1700000000000POST/capi/v2/order/closePositions{"symbol":"cmt_btcusdt"}`), h[HeaderAccessSign])
	})
}

func TestCredentialsComplete(t *testing.T) {
	assert.True(t, Credentials{APIKey: "k", APISecret: "s", Passphrase: "p"}.Complete())
	assert.False(t, Credentials{APIKey: "k", APISecret: "s"}.Complete())
	assert.False(t, Credentials{}.Complete())
}
