// internal/cache/local.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var cacheTracer = otel.Tracer("github.com/chris-regnier/chisel/internal/cache")

var _ CacheManager = (*LocalCache)(nil)

// LocalCache stores one JSON file per entry under a directory.
type LocalCache struct {
	dir string
}

func NewLocalCache(dir string) *LocalCache {
	return &LocalCache{dir: dir}
}

func (c *LocalCache) entryPath(key CacheKey) string {
	return filepath.Join(c.dir, key.Hash()+".json")
}

func (c *LocalCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	ctx, span := cacheTracer.Start(ctx, "cache lookup")
	defer span.End()

	cacheKeyHash := key.Hash()
	span.SetAttributes(
		attribute.String("chisel.cache.key", cacheKeyHash),
		attribute.String("chisel.file.path", key.FilePath),
	)

	if err := ctx.Err(); err != nil {
		return nil, record(span, err)
	}

	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			span.SetAttributes(attribute.Bool("chisel.cache.hit", false))
			return nil, ErrCacheMiss
		}
		return nil, record(span, err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, record(span, err)
	}

	span.SetAttributes(attribute.Bool("chisel.cache.hit", true))
	return &entry, nil
}

func (c *LocalCache) Put(ctx context.Context, entry *CacheEntry) error {
	_, span := cacheTracer.Start(ctx, "cache store")
	defer span.End()

	span.SetAttributes(attribute.String("chisel.cache.key", entry.Key.Hash()))

	if err := ctx.Err(); err != nil {
		return record(span, err)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return record(span, err)
	}

	entry.Timestamp = time.Now().Unix()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return record(span, err)
	}

	// Workers may store the same key concurrently; rename keeps readers from
	// seeing a partial file.
	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return record(span, err)
	}
	_, werr := tmp.Write(data)
	if err := errors.Join(werr, tmp.Close()); err != nil {
		os.Remove(tmp.Name())
		return record(span, err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(entry.Key)); err != nil {
		os.Remove(tmp.Name())
		return record(span, err)
	}
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(c.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func record(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Dir returns the cache directory.
func (c *LocalCache) Dir() string { return c.dir }
