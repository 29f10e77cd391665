package connectors

import "strings"

const contractPrefix = "cmt_"

// NormalizeSymbol turns common spellings into the WEEX contract symbol.
// Examples:
//
//	BTCUSD      -> cmt_btcusdt
//	BTC-USDT    -> cmt_btcusdt
//	ethusdt     -> cmt_ethusdt
//	cmt_btcusdt -> cmt_btcusdt
func NormalizeSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if s == "" {
		return s
	}

	s = strings.TrimPrefix(s, contractPrefix)
	s = strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)

	// If it ends with usd, replace with usdt
	if !strings.HasSuffix(s, "usdt") && strings.HasSuffix(s, "usd") {
		s += "t"
	}

	return contractPrefix + s
}
