package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearRequiredEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"JORNAL_USER", "JORNAL_PASS", "LLM_API_KEY",
		"WHATSAPP_TOKEN", "WHATSAPP_PHONE_ID",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_MissingRequiredFailsOutsideSimulation(t *testing.T) {
	clearRequiredEnv(t)
	t.Setenv("JORNAL_AGENT_HOME", t.TempDir())

	_, err := Load(false)
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Var != "JORNAL_USER" {
		t.Errorf("expected first missing var JORNAL_USER, got %s", cfgErr.Var)
	}
}

func TestLoad_SimulationSubstitutesPlaceholders(t *testing.T) {
	clearRequiredEnv(t)
	t.Setenv("JORNAL_AGENT_HOME", t.TempDir())

	cfg, err := Load(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JornalUser != "test_user" || cfg.JornalPass != "test_pass" {
		t.Errorf("expected placeholder credentials, got %q/%q", cfg.JornalUser, cfg.JornalPass)
	}
	if cfg.LLMAPIKey != "test_key" {
		t.Errorf("expected placeholder LLM key, got %q", cfg.LLMAPIKey)
	}
	if !cfg.Simulate {
		t.Error("expected Simulate=true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearRequiredEnv(t)
	home := t.TempDir()
	t.Setenv("JORNAL_AGENT_HOME", home)

	cfg, err := Load(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.LLMModel)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("expected default SMTP port 587, got %d", cfg.SMTPPort)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.DataDir != filepath.Join(home, "data") {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
}

func TestLoad_CreatesDirectories(t *testing.T) {
	clearRequiredEnv(t)
	home := t.TempDir()
	t.Setenv("JORNAL_AGENT_HOME", home)

	cfg, err := Load(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	// Idempotent on a second run.
	if _, err := Load(true); err != nil {
		t.Fatalf("second load failed: %v", err)
	}
}

func TestLoad_TimeoutAcceptsBareSeconds(t *testing.T) {
	clearRequiredEnv(t)
	t.Setenv("JORNAL_AGENT_HOME", t.TempDir())
	t.Setenv("TIMEOUT", "90")

	cfg, err := Load(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %s", cfg.Timeout)
	}
}

func TestHasSMTP(t *testing.T) {
	full := &RunConfig{
		SMTPHost: "smtp.example.com", SMTPUser: "u", SMTPPass: "p",
		EmailFrom: "a@example.com", EmailTo: "b@example.com",
	}
	if !full.HasSMTP() {
		t.Error("expected complete SMTP config to validate")
	}

	partial := *full
	partial.SMTPPass = ""
	if partial.HasSMTP() {
		t.Error("expected incomplete SMTP config to fail validation")
	}
}
