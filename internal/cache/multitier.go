// internal/cache/multitier.go
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MultiTierConfig selects how the local and remote tiers are consulted.
type MultiTierConfig struct {
	WriteToRemote  bool
	ReadFromRemote bool

	// PreferLocal consults the local tier before the remote one.
	PreferLocal bool

	// WarmLocalOnRemoteHit copies remote hits into the local tier.
	WarmLocalOnRemoteHit bool
}

// DefaultMultiTierConfig reads and writes both tiers, local first.
func DefaultMultiTierConfig() MultiTierConfig {
	return MultiTierConfig{
		WriteToRemote:        true,
		ReadFromRemote:       true,
		PreferLocal:          true,
		WarmLocalOnRemoteHit: true,
	}
}

// TierStats counts where lookups were served from.
type TierStats struct {
	LocalHits    int64
	RemoteHits   int64
	Misses       int64
	RemoteErrors int64
}

// MultiTierCache implements CacheManager with a local tier and an optional
// shared remote tier. Remote failures degrade to misses and never fail a
// run.
type MultiTierCache struct {
	local  CacheManager
	remote CacheManager
	config MultiTierConfig
	logger *slog.Logger

	localHits, remoteHits, misses, remoteErrors atomic.Int64
}

// NewMultiTierCache combines local with remote. A nil remote gives a
// local-only cache.
func NewMultiTierCache(local, remote CacheManager, config MultiTierConfig) *MultiTierCache {
	return &MultiTierCache{
		local:  local,
		remote: remote,
		config: config,
		logger: slog.Default(),
	}
}

// WithLogger replaces the logger used for remote-tier failures.
func (c *MultiTierCache) WithLogger(l *slog.Logger) *MultiTierCache {
	c.logger = l
	return c
}

// HasRemote reports whether a remote tier is attached.
func (c *MultiTierCache) HasRemote() bool {
	return c.remote != nil
}

// Stats returns lookup counters since creation.
func (c *MultiTierCache) Stats() TierStats {
	return TierStats{
		LocalHits:    c.localHits.Load(),
		RemoteHits:   c.remoteHits.Load(),
		Misses:       c.misses.Load(),
		RemoteErrors: c.remoteErrors.Load(),
	}
}

func (c *MultiTierCache) readsRemote() bool {
	return c.remote != nil && c.config.ReadFromRemote
}

func (c *MultiTierCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	tiers := []string{"local"}
	if c.readsRemote() {
		if c.config.PreferLocal {
			tiers = append(tiers, "remote")
		} else {
			tiers = []string{"remote", "local"}
		}
	}

	for _, tier := range tiers {
		entry, err := c.getFrom(ctx, tier, key)
		if err != nil {
			continue
		}
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("chisel.cache.tier", tier))
		return entry, nil
	}
	c.misses.Add(1)
	return nil, ErrCacheMiss
}

func (c *MultiTierCache) getFrom(ctx context.Context, tier string, key CacheKey) (*CacheEntry, error) {
	if tier == "local" {
		entry, err := c.local.Get(ctx, key)
		if err == nil {
			c.localHits.Add(1)
		}
		return entry, err
	}

	entry, err := c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.remoteErrors.Add(1)
			c.logger.Debug("remote cache lookup failed", "path", key.FilePath, "err", err)
		}
		return nil, err
	}
	c.remoteHits.Add(1)
	if c.config.WarmLocalOnRemoteHit {
		if err := c.local.Put(ctx, entry); err != nil {
			c.logger.Warn("failed to warm local cache", "path", key.FilePath, "err", err)
		}
	}
	return entry, nil
}

// Put writes the local tier, then the remote tier when enabled. Only a
// local failure is returned.
func (c *MultiTierCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := c.local.Put(ctx, entry); err != nil {
		return err
	}
	if c.remote != nil && c.config.WriteToRemote {
		if err := c.remote.Put(ctx, entry); err != nil {
			c.remoteErrors.Add(1)
			c.logger.Warn("failed to write to remote cache", "path", entry.Key.FilePath, "err", err)
		}
	}
	return nil
}

func (c *MultiTierCache) Delete(ctx context.Context, key CacheKey) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.Delete(ctx, key); err != nil {
			c.remoteErrors.Add(1)
			c.logger.Warn("failed to delete from remote cache", "path", key.FilePath, "err", err)
		}
	}
	return nil
}
