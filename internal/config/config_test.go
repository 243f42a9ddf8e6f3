package config

import (
	"os"
	"testing"
)

func TestConfigLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("TIMETRACKER_HTTP_PORT")
	_ = os.Unsetenv("TIMETRACKER_DB_DRIVER")
	_ = os.Unsetenv("TIMETRACKER_POSTGRES_DSN")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("unexpected default http port: %d", cfg.HTTPPort)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected sqlite driver without a postgres DSN, got %s", cfg.DBDriver)
	}
	if cfg.HealthIntervalSeconds != 30 {
		t.Fatalf("unexpected default health interval: %d", cfg.HealthIntervalSeconds)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("TIMETRACKER_HTTP_PORT", "9191")
	defer func() { _ = os.Unsetenv("TIMETRACKER_HTTP_PORT") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 9191 {
		t.Fatalf("http port env override failed, got %d", cfg.HTTPPort)
	}
}

func TestResolveDefaults_PostgresDSNSelectsPostgres(t *testing.T) {
	cfg := &Config{DBDriver: "auto", PostgresDSN: "postgres://localhost/timetracker"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("expected postgres, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_PostgresWithoutDSNFails(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
}

func TestResolveDefaults_UnknownDriverFails(t *testing.T) {
	cfg := &Config{DBDriver: "spanner"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
