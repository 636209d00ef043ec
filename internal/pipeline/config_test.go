package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"medwarehouse/pkg/logging"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WAREHOUSE_DATE_START", "")
	t.Setenv("WAREHOUSE_DATE_END", "")
	t.Setenv("CHANNEL_RULES_FILE", "")

	cfg, err := LoadConfig(logging.NewTestLogger())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.DateStart.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("default start = %v", cfg.DateStart)
	}
	if !cfg.DateEnd.Equal(time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("default end = %v", cfg.DateEnd)
	}
	if len(cfg.Rules) == 0 {
		t.Error("default rules missing")
	}
	if cfg.DefaultCategory != "general" {
		t.Errorf("default category = %q", cfg.DefaultCategory)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WAREHOUSE_DATE_START", "2026-01-01")
	t.Setenv("WAREHOUSE_DATE_END", "2026-12-31")
	t.Setenv("CHANNEL_RULES_FILE", "")

	cfg, err := LoadConfig(logging.NewTestLogger())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.DateStart.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", cfg.DateStart)
	}
	if !cfg.DateEnd.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", cfg.DateEnd)
	}
}

func TestLoadConfigInvertedRange(t *testing.T) {
	t.Setenv("WAREHOUSE_DATE_START", "2030-01-01")
	t.Setenv("WAREHOUSE_DATE_END", "2020-01-01")

	if _, err := LoadConfig(logging.NewTestLogger()); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestLoadConfigRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - pattern: vet
    category: veterinary
  - pattern: pharma
    category: pharmacy
default_category: uncategorized
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	t.Setenv("WAREHOUSE_DATE_START", "")
	t.Setenv("WAREHOUSE_DATE_END", "")
	t.Setenv("CHANNEL_RULES_FILE", path)

	cfg, err := LoadConfig(logging.NewTestLogger())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(cfg.Rules))
	}
	if cfg.Rules[0].Pattern != "vet" || cfg.Rules[0].Category != "veterinary" {
		t.Errorf("rule order not preserved: %+v", cfg.Rules)
	}
	if cfg.DefaultCategory != "uncategorized" {
		t.Errorf("default category = %q", cfg.DefaultCategory)
	}
}

func TestLoadRulesFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty rules", "rules: []\n"},
		{"missing category", "rules:\n  - pattern: vet\n"},
		{"invalid yaml", "rules: [pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write rules file: %v", err)
			}
			if _, _, err := LoadRulesFile(path); err == nil {
				t.Error("expected parse error")
			}
		})
	}

	if _, _, err := LoadRulesFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
