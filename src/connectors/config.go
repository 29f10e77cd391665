package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	APIKey     string `envconfig:"WEEX_API_KEY"`
	APISecret  string `envconfig:"WEEX_API_SECRET"`
	Passphrase string `envconfig:"WEEX_PASSPHRASE"`
	BaseURL    string `envconfig:"WEEX_BASE_URL" default:"https://api-contract.weex.com"`
	Locale     string `envconfig:"WEEX_LOCALE" default:"en-US"`

	Timeout time.Duration `envconfig:"WEEX_TIMEOUT" default:"30s"`

	// Client side throttle, requests per second. Zero disables it.
	RateLimit float64 `envconfig:"WEEX_RATE_LIMIT" default:"10"`
	RateBurst int     `envconfig:"WEEX_RATE_BURST" default:"5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
