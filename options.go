package elasticsearch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/isabella232/elasticsearch/internal/cache"
	"github.com/isabella232/elasticsearch/transport"
)

// clientConfig collects the construction parameters before assembly.
type clientConfig struct {
	address    string
	header     http.Header
	timeout    time.Duration
	httpClient *http.Client
	transport  transport.Performer
	logger     *zap.Logger
	registerer prometheus.Registerer
	warnings   WarningsMode

	pluginEntries []VariantEntry
	callerEntries []VariantEntry

	docCache    cache.Cache
	docCacheErr error
}

// Option configures the client during New.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(cfg *clientConfig) { f(cfg) }

// WithAddress sets the base URL of the cluster. Defaults to
// http://localhost:9200.
func WithAddress(address string) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.address = address
	})
}

// WithHeader adds a default header sent with every request. Per-call
// headers override it.
func WithHeader(key, value string) Option {
	return optionFunc(func(cfg *clientConfig) {
		if cfg.header == nil {
			cfg.header = http.Header{}
		}
		cfg.header.Add(key, value)
	})
}

// WithTimeout bounds each exchange end to end. Ignored when a custom
// *http.Client or transport is supplied.
func WithTimeout(timeout time.Duration) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.timeout = timeout
	})
}

// WithHTTPClient supplies the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.httpClient = httpClient
	})
}

// WithTransport replaces the whole transport layer. Address, header,
// timeout, and HTTP client options are ignored when set.
func WithTransport(p transport.Performer) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.transport = p
	})
}

// WithLogger sets the client logger. Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.logger = logger
	})
}

// WithMetrics registers the client's collectors with reg and enables
// per-request observations.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.registerer = reg
	})
}

// WithWarnings sets the client-level handling of server deprecation
// warnings. Defaults to permissive (log and continue).
func WithWarnings(mode WarningsMode) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.warnings = mode
	})
}

// WithPluginDecoders appends plugin-provided variant decoders. Plugin
// entries are merged after the built-in set and before caller entries;
// any duplicate (category, name) key fails construction.
func WithPluginDecoders(entries ...VariantEntry) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.pluginEntries = append(cfg.pluginEntries, entries...)
	})
}

// WithVariantDecoders appends caller-provided variant decoders, merged
// last. Any duplicate (category, name) key fails construction.
func WithVariantDecoders(entries ...VariantEntry) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.callerEntries = append(cfg.callerEntries, entries...)
	})
}

// WithLRUDocumentCache enables an in-process read-through cache for
// document gets, holding up to size entries for at most ttl.
func WithLRUDocumentCache(size int, ttl time.Duration) Option {
	return optionFunc(func(cfg *clientConfig) {
		cfg.docCache = cache.NewLRU(size, ttl)
	})
}

// WithRedisDocumentCache enables a Redis-backed read-through cache for
// document gets, shared between processes.
func WithRedisDocumentCache(addrs []string, password string, ttl time.Duration) Option {
	return optionFunc(func(cfg *clientConfig) {
		c, err := cache.NewRedis(cache.RedisConfig{
			Addrs:    addrs,
			Password: password,
			TTL:      ttl,
		})
		if err != nil {
			cfg.docCacheErr = err
			return
		}
		cfg.docCache = c
	})
}
