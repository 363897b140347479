// Package cache provides the optional read-through document cache.
// Two backends exist: an in-process expirable LRU and a Redis-backed
// store for processes that share a cache. Lookup misses are signaled
// with ErrKeyNotFound so callers can tell a miss from a backend failure.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrKeyNotFound signals a cache miss.
var ErrKeyNotFound = errors.New("key not found")

// Cache is a byte-value cache keyed by string.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// LRU is an in-process expirable LRU cache.
type LRU struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRU creates an LRU cache holding up to size entries for at most ttl.
// ttl == 0 disables expiry.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached value or ErrKeyNotFound.
func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	return nil, ErrKeyNotFound
}

// Set stores value under key.
func (c *LRU) Set(_ context.Context, key string, value []byte) error {
	c.lru.Add(key, value)
	return nil
}

// Del removes key.
func (c *LRU) Del(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}
