package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSubstitutesEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"server": {"port": ${KINDRED_PORT:8080}, "log_level": "${KINDRED_LOG:info}"},
		"completion": {"endpoint": "${KINDRED_LLM_ENDPOINT}", "model": "test"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KINDRED_LOG", "debug")
	os.Unsetenv("KINDRED_PORT")
	os.Unsetenv("KINDRED_LLM_ENDPOINT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default not applied: port %d", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("env override lost: %q", cfg.Server.LogLevel)
	}
	if cfg.Completion.Endpoint != "" {
		t.Errorf("unset var without default should be empty, got %q", cfg.Completion.Endpoint)
	}
	if cfg.Completion.Model != "test" {
		t.Errorf("plain value mangled: %q", cfg.Completion.Model)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
