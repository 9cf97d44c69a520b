package extension

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BasePath != "/gatehouse" || cfg.GuardName != "web" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.CacheSize <= 0 {
		t.Fatalf("expected an in-process cache by default, got %+v", cfg)
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Config{GuardName: "api", AuditAllows: true}.engineConfig()
	if cfg.GuardName != "api" || !cfg.AuditAllows {
		t.Fatalf("unexpected engine config %+v", cfg)
	}
	if cfg.AuditDenials == nil || !*cfg.AuditDenials {
		t.Fatal("denials must stay audited")
	}

	cfg = Config{}.engineConfig()
	if cfg.GuardName != "web" {
		t.Fatalf("expected default guard name, got %q", cfg.GuardName)
	}
}

func TestNewAppliesOptions(t *testing.T) {
	e := New(WithDisableRoutes(), WithDisableMigrate())
	if !e.config.DisableRoutes || !e.config.DisableMigrate {
		t.Fatalf("options not applied: %+v", e.config)
	}
	if e.config.GuardName != "web" {
		t.Fatal("options should layer over the defaults")
	}
	if e.Name() != ExtensionName {
		t.Fatalf("unexpected name %q", e.Name())
	}
}
