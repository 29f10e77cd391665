package proxy

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DocsDir         string        `envconfig:"DOCS_DIR" default:"./docs"`
	UpstreamURL     string        `envconfig:"WEEX_BASE_URL" default:"https://api-contract.weex.com"`
	UpstreamTimeout time.Duration `envconfig:"PROXY_UPSTREAM_TIMEOUT" default:"30s"`
	DefaultLocale   string        `envconfig:"WEEX_LOCALE" default:"en-US"`

	// Sign anonymous requests with the gateway's own WEEX_API_* credentials.
	ServerCredentials bool `envconfig:"PROXY_SERVER_CREDENTIALS" default:"false"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
