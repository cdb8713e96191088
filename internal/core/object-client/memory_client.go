package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

// MemoryClient keeps objects in process. It backs local runs without AWS
// credentials and the tests.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

var _ core.ObjectClient = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *MemoryClient) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	return "memory://" + key, nil
}

func (m *MemoryClient) GetFile(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, models.ErrNotFound)
	}
	return bytes.Clone(b), nil
}

func (m *MemoryClient) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// ContentType returns the content type recorded for key.
func (m *MemoryClient) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[key]
}
