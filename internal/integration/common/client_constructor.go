package common

import (
	"github.com/futig/docqa-backend/internal/config"
	pkgHTTP "github.com/futig/docqa-backend/pkg/http"
	"go.uber.org/zap"
)

// GeminiAPIKeyHeader carries the key for Google Generative Language endpoints.
const GeminiAPIKeyHeader = "x-goog-api-key"

// NewBaseConnector authenticates with cfg.Token as a Bearer credential.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger, opts ...pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	opts = append(baseOptions(cfg), append(opts, pkgHTTP.WithAuthToken(cfg.Token))...)
	return newConnector(cfg, logger, opts)
}

// NewAPIKeyConnector sends cfg.Token in the given header instead of Authorization.
func NewAPIKeyConnector(cfg config.HTTPClientConfig, header string, logger *zap.Logger, opts ...pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	opts = append(baseOptions(cfg), append(opts, pkgHTTP.WithAPIKey(header, cfg.Token))...)
	return newConnector(cfg, logger, opts)
}

func newConnector(cfg config.HTTPClientConfig, logger *zap.Logger, opts []pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}
	return pkgHTTP.NewConnector(connCfg, opts...)
}

func baseOptions(cfg config.HTTPClientConfig) []pkgHTTP.HttpOpts {
	return []pkgHTTP.HttpOpts{
		pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
			Request:        cfg.RequestTimeout,
			Dial:           cfg.ConnTimeout,
			KeepAlive:      cfg.KeepAlive,
			TLSHandshake:   cfg.TLSHandshakeTimeout,
			ResponseHeader: cfg.ResponseHeaderTimeout,
			IdleConn:       cfg.IdleConnTimeout,
		}),
		pkgHTTP.WithIdlePool(cfg.MaxIdleConns, cfg.MaxIdleConnsPerHost),
		pkgHTTP.WithRequestLogging(),
	}
}
