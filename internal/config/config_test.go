package config

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ES_TEST_KEY", "secret")

	out := expandEnvVars([]byte("header: ApiKey ${ES_TEST_KEY}\nother: ${ES_TEST_UNSET}\n"))
	want := "header: ApiKey secret\nother: \n"
	if string(out) != want {
		t.Errorf("expanded = %q, want %q", out, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Cache.Backend = "lru"
	cfg.ApplyDefaults()

	if cfg.Cluster.TimeoutSec != 30 {
		t.Errorf("timeout = %d, want 30", cfg.Cluster.TimeoutSec)
	}
	if cfg.Cluster.Warnings != "permissive" {
		t.Errorf("warnings = %q, want permissive", cfg.Cluster.Warnings)
	}
	if cfg.Cache.Size != 1024 {
		t.Errorf("cache size = %d, want 1024", cfg.Cache.Size)
	}
	if cfg.Cache.TTLSec != 60 {
		t.Errorf("cache ttl = %d, want 60", cfg.Cache.TTLSec)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{}
	valid.Cluster.Address = "http://localhost:9200"
	valid.Cluster.Warnings = "permissive"
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	noAddr := valid
	noAddr.Cluster.Address = ""
	if err := noAddr.Validate(); err == nil {
		t.Error("expected error for a missing address")
	}

	badWarnings := valid
	badWarnings.Cluster.Warnings = "sometimes"
	if err := badWarnings.Validate(); err == nil {
		t.Error("expected error for an unknown warnings mode")
	}

	redisNoAddrs := valid
	redisNoAddrs.Cache.Backend = "redis"
	if err := redisNoAddrs.Validate(); err == nil {
		t.Error("expected error for redis cache without addrs")
	}

	badBackend := valid
	badBackend.Cache.Backend = "memcached"
	if err := badBackend.Validate(); err == nil {
		t.Error("expected error for an unknown cache backend")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(dir+"/config", 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte(`
cluster:
  address: http://search:9200
  warnings: strict
cache:
  backend: lru
logging:
  level: debug
`)
	if err := os.WriteFile(dir+"/config/test.yaml", content, 0o600); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cluster.Address != "http://search:9200" {
		t.Errorf("address = %q, want http://search:9200", cfg.Cluster.Address)
	}
	if cfg.Cluster.Warnings != "strict" {
		t.Errorf("warnings = %q, want strict", cfg.Cluster.Warnings)
	}
	if cfg.Cache.Size != 1024 {
		t.Errorf("cache size = %d, want the lru default", cfg.Cache.Size)
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	in := Config{}
	in.Cluster.Address = "http://localhost:9200"
	in.Cluster.Headers = map[string]string{"Authorization": "ApiKey x"}

	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out Config
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cluster.Headers["Authorization"] != "ApiKey x" {
		t.Errorf("headers = %v, want the authorization header", out.Cluster.Headers)
	}
}
