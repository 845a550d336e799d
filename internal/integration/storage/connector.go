package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to a Supabase Storage compatible object store.
type Connector struct {
	config    config.StorageConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.StorageConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type uploadResponse struct {
	Key string `json:"Key"`
}

// Put uploads content, overwriting any object at path, and returns the stored path.
// POST /storage/v1/object/{bucket}/{path}
func (c *Connector) Put(ctx context.Context, path string, content []byte, contentType string) (string, error) {
	endpoint := "/storage/v1/object/" + c.objectPath(path)

	err := pkgRetry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		var resp uploadResponse
		return c.connector.DoRawRequest(ctx, http.MethodPost, endpoint, content, contentType, &resp,
			pkghttp.WithHeader("x-upsert", "true"),
			pkghttp.WithHeader("apikey", c.config.Token),
		)
	}, retry.RetryIf(pkghttp.IsRetryable))
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", entity.ErrStorage, path, err)
	}

	ctxzap.Debug(ctx, "object uploaded",
		zap.String("path", path),
		zap.Int("size", len(content)),
	)
	return path, nil
}

// Delete removes the object at path. A missing object is not an error.
// DELETE /storage/v1/object/{bucket}/{path}
func (c *Connector) Delete(ctx context.Context, path string) error {
	endpoint := "/storage/v1/object/" + c.objectPath(path)

	err := pkgRetry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		return c.connector.DoRequest(ctx, http.MethodDelete, endpoint, nil, nil,
			pkghttp.WithHeader("apikey", c.config.Token),
		)
	}, retry.RetryIf(pkghttp.IsRetryable))

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", entity.ErrStorage, path, err)
	}

	ctxzap.Debug(ctx, "object deleted", zap.String("path", path))
	return nil
}

// PublicURL returns the public download URL of path.
func (c *Connector) PublicURL(path string) string {
	return strings.TrimRight(c.connector.BaseURL(), "/") + "/storage/v1/object/public/" + c.objectPath(path)
}

func (c *Connector) objectPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return url.PathEscape(c.config.Bucket) + "/" + strings.Join(segments, "/")
}
