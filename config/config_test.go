package config

import "testing"

func TestDSNFromURL(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://localhost:5432/visits?sslmode=disable"}
	if got := c.DSN(); got != c.URL {
		t.Fatalf("expected URL passthrough, got %q", got)
	}
}

func TestDSNFromComponents(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: "5433", User: "app", Password: "pw",
		DBName: "visits", SSLMode: "require",
	}
	want := "postgres://app:pw@db:5433/visits?sslmode=require"
	if got := c.DSN(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port == "" {
		t.Fatal("expected default port")
	}
	if cfg.JWT.ExpireHours <= 0 {
		t.Fatal("expected positive token expiry")
	}
}
