package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/chris-regnier/chisel/internal/astcheck"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheKey identifies the violations of one file content under one check
// configuration.
type CacheKey struct {
	FileHash string `json:"file_hash"`
	FilePath string `json:"file_path"`
	Engine   string `json:"engine"`
	Plan     string `json:"plan"`
}

// NewKey builds the key for a file's content analyzed by engine version
// engine under the plan with the given fingerprint.
func NewKey(path string, content []byte, engine, plan string) CacheKey {
	return CacheKey{
		FileHash: ContentHash(content),
		FilePath: path,
		Engine:   engine,
		Plan:     plan,
	}
}

// Hash computes deterministic cache key
func (k CacheKey) Hash() string {
	b, err := json.Marshal(k)
	if err != nil {
		// CacheKey only holds strings
		panic("failed to marshal CacheKey: " + err.Error())
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// CacheEntry is the cached result of analyzing one file.
type CacheEntry struct {
	Key        CacheKey             `json:"key"`
	Violations []astcheck.Violation `json:"violations"`
	Timestamp  int64                `json:"timestamp"`
}

// CacheManager stores analysis results by key.
type CacheManager interface {
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)
	Put(ctx context.Context, entry *CacheEntry) error
	Delete(ctx context.Context, key CacheKey) error
}
