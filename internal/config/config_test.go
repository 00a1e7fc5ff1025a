package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"context_url": "http://ctx.internal:9000",
		"graph_ttl_seconds": 5,
		"disabled_tools": ["graph_clear"]
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ContextURL != "http://ctx.internal:9000" {
		t.Errorf("ContextURL = %q", cfg.ContextURL)
	}
	if cfg.GraphTTLSeconds != 5 {
		t.Errorf("GraphTTLSeconds = %d", cfg.GraphTTLSeconds)
	}
	// Untouched fields keep defaults.
	if cfg.GraphURL != "http://localhost:8500" {
		t.Errorf("GraphURL = %q", cfg.GraphURL)
	}
	if cfg.DossierTTLMinutes != 15 {
		t.Errorf("DossierTTLMinutes = %d", cfg.DossierTTLMinutes)
	}
	if !reflect.DeepEqual(cfg.DisabledTools, []string{"graph_clear"}) {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestMergeScalarPrecedence(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{GraphURL: "http://other:8501", WebPort: 9999}

	merged := Merge(base, overlay)
	if merged.GraphURL != "http://other:8501" {
		t.Errorf("GraphURL = %q", merged.GraphURL)
	}
	if merged.WebPort != 9999 {
		t.Errorf("WebPort = %d", merged.WebPort)
	}
	if merged.ContextURL != base.ContextURL {
		t.Errorf("zero overlay scalar must fall back to base, got %q", merged.ContextURL)
	}
}

func TestMergeStringSliceDedup(t *testing.T) {
	got := mergeStringSlice([]string{"a", " b ", ""}, []string{"b", "c"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
	if mergeStringSlice(nil, nil) != nil {
		t.Errorf("empty merge should be nil")
	}
}
