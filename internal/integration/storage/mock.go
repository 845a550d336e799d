package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector keeps objects in memory.
type MockConnector struct {
	mu      sync.RWMutex
	objects map[string][]byte
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		objects: make(map[string][]byte),
		logger:  logger,
	}
}

func (m *MockConnector) Put(ctx context.Context, path string, content []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrStorage, err)
	}

	m.mu.Lock()
	m.objects[path] = append([]byte(nil), content...)
	m.mu.Unlock()

	ctxzap.Info(ctx, "[MOCK] object uploaded",
		zap.String("path", path),
		zap.String("content_type", contentType),
	)
	return path, nil
}

func (m *MockConnector) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	delete(m.objects, path)
	m.mu.Unlock()

	ctxzap.Info(ctx, "[MOCK] object deleted", zap.String("path", path))
	return nil
}

func (m *MockConnector) PublicURL(path string) string {
	return "mock://storage/" + path
}

// Has reports whether an object exists at path.
func (m *MockConnector) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (m *MockConnector) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
