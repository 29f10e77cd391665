package server

import (
	"fmt"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"weexgateway/src/catalog"
	"weexgateway/src/connectors"
	"weexgateway/src/proxy"
	"weexgateway/src/repository"
	"weexgateway/src/security"
)

// BuildProxyHandler assembles the proxy router from the environment.
// database.InitMainDB must run first for the journal to be persisted.
func BuildProxyHandler() (http.Handler, error) {
	cfg := proxy.GetConfig()

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load endpoint catalog: %w", err)
	}

	metrics := proxy.NewMetrics()
	opts := []proxy.Option{
		proxy.WithMetrics(metrics),
		proxy.WithJournal(repository.NewRequestLogRepository()),
	}

	if cfg.ServerCredentials {
		weex := connectors.GetConfig()
		creds := security.Credentials{APIKey: weex.APIKey, APISecret: weex.APISecret, Passphrase: weex.Passphrase}
		if !creds.Complete() {
			return nil, fmt.Errorf("PROXY_SERVER_CREDENTIALS is set but WEEX_API_KEY, WEEX_API_SECRET or WEEX_PASSPHRASE is empty")
		}
		opts = append(opts, proxy.WithServerCredentials(creds))
		logger.Warn("Proxy signs anonymous requests with the gateway credentials")
	}

	tokenHash := security.GetConfig().ProxyTokenHash
	if tokenHash == "" {
		logger.Warn("PROXY_TOKEN_HASH is empty, /capi and /_proxy routes are open")
	}

	p := proxy.New(cfg, cat, opts...)
	logger.WithFields(logger.Fields{
		"upstream": cfg.UpstreamURL,
		"docs":     cfg.DocsDir,
		"timeout":  cfg.UpstreamTimeout.String(),
	}).Info("WEEX proxy configured")

	return NewRouter(DefaultRoutes(cfg, p, metrics, tokenHash)), nil
}
