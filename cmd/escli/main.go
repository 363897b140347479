// escli is a small command-line client: ping the cluster, fetch a
// document, count or search documents. It doubles as the composition
// root showing how the pieces wire together.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	elasticsearch "github.com/isabella232/elasticsearch"
	"github.com/isabella232/elasticsearch/internal/config"
	logpkg "github.com/isabella232/elasticsearch/internal/logger"
	"github.com/isabella232/elasticsearch/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("starting escli",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("address", cfg.Cluster.Address),
	)

	client, err := buildClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Cluster.TimeoutSec)*time.Second)
	defer cancel()

	if err := run(ctx, client, os.Args[1], os.Args[2:]); err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

// buildClient assembles the client from file-based configuration.
func buildClient(cfg config.Config, logger *zap.Logger) (*elasticsearch.Client, error) {
	opts := []elasticsearch.Option{
		elasticsearch.WithAddress(cfg.Cluster.Address),
		elasticsearch.WithTimeout(time.Duration(cfg.Cluster.TimeoutSec) * time.Second),
		elasticsearch.WithLogger(logger),
	}
	for k, v := range cfg.Cluster.Headers {
		opts = append(opts, elasticsearch.WithHeader(k, v))
	}
	if cfg.Cluster.Warnings == "strict" {
		opts = append(opts, elasticsearch.WithWarnings(elasticsearch.WarningsStrict))
	}

	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	switch cfg.Cache.Backend {
	case "lru":
		opts = append(opts, elasticsearch.WithLRUDocumentCache(cfg.Cache.Size, ttl))
	case "redis":
		opts = append(opts, elasticsearch.WithRedisDocumentCache(cfg.Cache.Addrs, cfg.Cache.Password, ttl))
	}

	return elasticsearch.New(opts...)
}

func run(ctx context.Context, client *elasticsearch.Client, command string, args []string) error {
	switch command {
	case "ping":
		return runPing(ctx, client)
	case "info":
		return runInfo(ctx, client)
	case "get":
		return runGet(ctx, client, args)
	case "count":
		return runCount(ctx, client, args)
	case "search":
		return runSearch(ctx, client, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runPing(ctx context.Context, client *elasticsearch.Client) error {
	up, err := client.Ping(ctx)
	if err != nil {
		return err
	}
	if !up {
		return fmt.Errorf("cluster did not answer")
	}
	fmt.Println("ok")
	return nil
}

func runInfo(ctx context.Context, client *elasticsearch.Client) error {
	info, err := client.Info(ctx, nil)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func runGet(ctx context.Context, client *elasticsearch.Client, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	index := fs.String("index", "", "index name")
	id := fs.String("id", "", "document id")
	_ = fs.Parse(args)

	resp, err := client.Documents(*index).Get(ctx, &elasticsearch.GetRequest{ID: *id})
	if err != nil {
		return err
	}
	if !resp.Found {
		return fmt.Errorf("document %q not found", *id)
	}
	return printJSON(resp)
}

func runCount(ctx context.Context, client *elasticsearch.Client, args []string) error {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	index := fs.String("index", "", "index name")
	_ = fs.Parse(args)

	count, err := client.Search(*index).Count(ctx, &elasticsearch.CountRequest{})
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}

func runSearch(ctx context.Context, client *elasticsearch.Client, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	index := fs.String("index", "", "index name")
	field := fs.String("field", "", "field to match")
	query := fs.String("query", "", "query text")
	size := fs.Int("size", 10, "maximum hits")
	_ = fs.Parse(args)

	req := &elasticsearch.SearchRequest{Size: size}
	if *query != "" && *field != "" {
		req.Query = map[string]any{
			"match": map[string]any{*field: *query},
		}
	}

	resp, err := client.Search(*index).Search(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("total: %d (%s)\n", resp.Hits.Total.Value, resp.Hits.Total.Relation)
	for _, hit := range resp.Hits.Hits {
		if err := printJSON(hit); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: escli <command> [flags]

commands:
  ping                                  check cluster liveness
  info                                  print cluster information
  get    -index NAME -id ID             fetch one document
  count  -index NAME                    count documents
  search -index NAME -field F -query Q  run a match query`)
}
