package elasticsearch

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/isabella232/elasticsearch/internal/cache"
	"github.com/isabella232/elasticsearch/internal/metrics"
	"github.com/isabella232/elasticsearch/transport"
)

// DefaultAddress is used when no address option is given.
const DefaultAddress = "http://localhost:9200"

// Client is the typed entry point to the cluster. It is immutable after
// New and safe for concurrent use.
type Client struct {
	transport transport.Performer
	registry  *variantRegistry
	logger    *zap.Logger
	metrics   *metrics.Client
	warnings  WarningsMode
	docCache  cache.Cache
}

// New builds a client. Construction validates the full configuration
// up front: a bad address or a duplicate variant decoder key fails here,
// never at call time.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		address:  DefaultAddress,
		warnings: WarningsPermissive,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.docCacheErr != nil {
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("document cache: %v", cfg.docCacheErr),
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	registry, err := newVariantRegistry(
		append(builtinAggregations(), builtinSuggesters()...),
		cfg.pluginEntries,
		cfg.callerEntries,
	)
	if err != nil {
		return nil, err
	}

	var mc *metrics.Client
	if cfg.registerer != nil {
		mc = metrics.NewClient()
		if err := mc.Register(cfg.registerer); err != nil {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("register metrics: %v", err),
			}
		}
	}

	performer := cfg.transport
	if performer == nil {
		var observer transport.Observer
		if mc != nil {
			observer = mc
		}
		performer, err = transport.New(transport.Config{
			Address:    cfg.address,
			Header:     cfg.header,
			Timeout:    cfg.timeout,
			HTTPClient: cfg.httpClient,
			Logger:     cfg.logger,
			Observer:   observer,
		})
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
	}

	return &Client{
		transport: performer,
		registry:  registry,
		logger:    cfg.logger,
		metrics:   mc,
		warnings:  cfg.warnings,
		docCache:  cfg.docCache,
	}, nil
}

// Documents returns the document operations handle for index.
func (c *Client) Documents(index string) *DocumentsService {
	return &DocumentsService{client: c, index: index}
}

// Search returns the search operations handle for index.
func (c *Client) Search(index string) *SearchService {
	return &SearchService{client: c, index: index}
}

// Indices returns the index management handle.
func (c *Client) Indices() *IndicesService {
	return &IndicesService{client: c}
}

// Ping reports whether the cluster answers on the configured address.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	req := &pingRequest{}
	status, err := performStatus(ctx, c, req, http.StatusNotFound, http.StatusServiceUnavailable)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

// InfoResponse is the cluster information returned by the root endpoint.
type InfoResponse struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	ClusterUUID string `json:"cluster_uuid"`
	Version     struct {
		Number        string `json:"number"`
		BuildFlavor   string `json:"build_flavor"`
		LuceneVersion string `json:"lucene_version"`
	} `json:"version"`
	Tagline string `json:"tagline"`
}

// Info fetches cluster name and version information.
func (c *Client) Info(ctx context.Context, opts *CallOptions) (*InfoResponse, error) {
	req := &infoRequest{requestOptions{Options: opts}}
	return perform(ctx, c, req, func(body *bodyDecoder) (*InfoResponse, error) {
		var info InfoResponse
		if err := body.decode(&info); err != nil {
			return nil, err
		}
		return &info, nil
	})
}

type pingRequest struct {
	requestOptions
}

func (r *pingRequest) Validate() error { return nil }

func (r *pingRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodHead,
		Path:     "/",
		Endpoint: "ping",
	}, nil
}

type infoRequest struct {
	requestOptions
}

func (r *infoRequest) Validate() error { return nil }

func (r *infoRequest) toWire() (*transport.Request, error) {
	return &transport.Request{
		Method:   http.MethodGet,
		Path:     "/",
		Endpoint: "info",
	}, nil
}
