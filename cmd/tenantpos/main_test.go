package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/neomorfeo/tenantpos/internal/adapter/auth"
	"github.com/neomorfeo/tenantpos/internal/adapter/sqlite"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

func TestEnvOrDefault_Fallback(t *testing.T) {
	v := envOrDefault("TENANTPOS_TEST_NONEXISTENT_KEY", "fallback")
	if v != "fallback" {
		t.Errorf("got %q, want %q", v, "fallback")
	}
}

func TestEnvOrDefault_EnvSet(t *testing.T) {
	t.Setenv("TENANTPOS_TEST_KEY", "custom")

	v := envOrDefault("TENANTPOS_TEST_KEY", "fallback")
	if v != "custom" {
		t.Errorf("got %q, want %q", v, "custom")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.TokenTTL != 8*time.Hour {
		t.Errorf("TokenTTL = %s, want 8h", cfg.TokenTTL)
	}
	if cfg.AuditWorkers != 2 {
		t.Errorf("AuditWorkers = %d, want 2", cfg.AuditWorkers)
	}
	if cfg.Defaults.CurrencyCode != "USD" || cfg.Defaults.CurrencySymbol != "$" || cfg.Defaults.TaxRate != 0 {
		t.Errorf("Defaults = %+v, want USD/$/0", cfg.Defaults)
	}
}

func TestLoadConfig_CustomValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DEFAULT_CURRENCY_CODE", "EUR")
	t.Setenv("DEFAULT_CURRENCY_SYMBOL", "€")
	t.Setenv("DEFAULT_TAX_RATE", "0.21")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("AUDIT_WORKERS", "4")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Defaults.CurrencyCode != "EUR" || cfg.Defaults.CurrencySymbol != "€" || cfg.Defaults.TaxRate != 0.21 {
		t.Errorf("Defaults = %+v, want EUR/€/0.21", cfg.Defaults)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %s, want 30m", cfg.TokenTTL)
	}
	if cfg.AuditWorkers != 4 {
		t.Errorf("AuditWorkers = %d, want 4", cfg.AuditWorkers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"tax rate not a number", map[string]string{"DEFAULT_TAX_RATE": "ten"}},
		{"tax rate above one", map[string]string{"DEFAULT_TAX_RATE": "8"}},
		{"bad ttl", map[string]string{"TOKEN_TTL": "forever"}},
		{"zero audit workers", map[string]string{"AUDIT_WORKERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := loadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json").Info("hello", "k", "v")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json logger wrote %q: %v", buf.String(), err)
	}
	if line["msg"] != "hello" || line["k"] != "v" {
		t.Errorf("log line = %v", line)
	}

	buf.Reset()
	newLogger(&buf, "text").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text logger wrote %q", buf.String())
	}
}

// noopPublisher is a local EventPublisher for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.AuditEvent) error {
	return nil
}

// TestSmoke wires the router like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config{JWTSecret: "s3cret", JWTIssuer: "tenantpos", TokenTTL: time.Hour}
	router, err := newRouter(store, &noopPublisher{}, cfg)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	tokens, _ := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer)
	admin, err := tokens.Sign(domain.Session{Identity: domain.Identity{UserID: "admin", Role: domain.RoleSuperAdmin}}, time.Hour)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/tenants", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+admin)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/tenants failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var tenants []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&tenants); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(tenants) != 0 {
		t.Errorf("got %d tenants, want 0 (empty database)", len(tenants))
	}
}

// TestRun exercises the real run() function end-to-end: OTel, River, HTTP
// server, and graceful shutdown. It uses stdout OTel exporter and a temp
// database to avoid external dependencies.
func TestRun(t *testing.T) {
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OTEL_EXPORTER", "none")
	t.Setenv("OTEL_ENVIRONMENT", "test")

	// Discard OTel stdout exporter output during the test.
	origStdout := os.Stdout
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/slugs/suggestion?name=Acme", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	// Governance routes need a token.
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/tenants", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/tenants failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	// Send SIGINT to trigger graceful shutdown.
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OTEL_EXPORTER", "none")
	t.Setenv("OTEL_ENVIRONMENT", "test")

	// Discard OTel stdout output.
	origStdout := os.Stdout
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

// TestRun_MissingSecret verifies run() refuses to start without a signing key.
func TestRun_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if err := run(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("run() = %v, want JWT_SECRET error", err)
	}
}
