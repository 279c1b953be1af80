// Package catalog loads the class catalogue and student roster documents.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/classsync/internal/domain"
)

// Source opens a named document (class.json, student.json).
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads documents from a local directory.
type DirSource string

func (d DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(string(d), name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrCatalogMissing)
		}
		return nil, err
	}
	return f, nil
}

// Loader reads both documents on first use and serves the cached Catalog afterwards.
type Loader struct {
	src        Source
	classKey   string
	studentKey string

	mu  sync.RWMutex
	cat *domain.Catalog
}

func NewLoader(src Source, classKey, studentKey string) *Loader {
	return &Loader{src: src, classKey: classKey, studentKey: studentKey}
}

// Catalog returns the cached catalogue, loading it if needed.
func (l *Loader) Catalog(ctx context.Context) (*domain.Catalog, error) {
	l.mu.RLock()
	cat := l.cat
	l.mu.RUnlock()
	if cat != nil {
		return cat, nil
	}
	return l.Reload(ctx)
}

// Reload re-reads both documents and replaces the cache.
func (l *Loader) Reload(ctx context.Context) (*domain.Catalog, error) {
	cat := &domain.Catalog{}
	if err := l.decode(ctx, l.classKey, &cat.Classes); err != nil {
		return nil, err
	}
	if err := l.decode(ctx, l.studentKey, &cat.Students); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cat = cat
	l.mu.Unlock()
	return cat, nil
}

func (l *Loader) decode(ctx context.Context, key string, v interface{}) error {
	rc, err := l.src.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
