package config

import "testing"

func TestEngineConfigValidate(t *testing.T) {
	good := EngineConfig{MaxIterations: 3, MaxConcurrentSteps: 4}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (EngineConfig{MaxIterations: 0, MaxConcurrentSteps: 4}).Validate(); err == nil {
		t.Fatalf("zero max_iterations must be rejected")
	}
	if err := (EngineConfig{MaxIterations: 3, MaxConcurrentSteps: 0}).Validate(); err == nil {
		t.Fatalf("zero max_concurrent_steps must be rejected")
	}
}

func TestToolsConfigValidate(t *testing.T) {
	if err := (ToolsConfig{Backend: "local"}).Validate(); err != nil {
		t.Fatalf("local backend rejected: %v", err)
	}
	if err := (ToolsConfig{Backend: "remote"}).Validate(); err == nil {
		t.Fatalf("remote backend without endpoint must be rejected")
	}
	if err := (ToolsConfig{Backend: "remote", Remote: RemoteToolConfig{Endpoint: "http://localhost:9000/rpc"}}).Validate(); err != nil {
		t.Fatalf("remote backend with endpoint rejected: %v", err)
	}
	if err := (ToolsConfig{Backend: "carrier-pigeon"}).Validate(); err == nil {
		t.Fatalf("unknown backend must be rejected")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "axon", Password: "pw", DBName: "axon"}
	want := "host=db port=5432 user=axon password=pw dbname=axon sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}

	cfg.URL = "postgres://axon:pw@db:5432/axon"
	if got := cfg.DSN(); got != cfg.URL {
		t.Fatalf("explicit URL must win, got %q", got)
	}
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6379"}
	if got := cfg.Addr(); got != "cache:6379" {
		t.Fatalf("Addr() = %q", got)
	}
	if err := (RedisConfig{}).Validate(); err == nil {
		t.Fatalf("missing host/port must be rejected")
	}
}
