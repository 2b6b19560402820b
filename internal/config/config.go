// Package config loads the per-run configuration from the environment.
//
// Required variables (unless running in simulation mode):
//   - JORNAL_USER, JORNAL_PASS: credentials for the newspaper site
//   - LLM_API_KEY: key for the OpenAI-compatible completions endpoint
//   - WHATSAPP_TOKEN, WHATSAPP_PHONE_ID: WhatsApp Cloud API credentials
//
// Everything else has a documented default. A .env file in the working
// directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RunConfig is an immutable snapshot of every external parameter one run
// needs. It is created once by Load and passed by reference, read-only,
// to every other component.
type RunConfig struct {
	// Newspaper site
	JornalUser     string
	JornalPass     string
	JornalLoginURL string
	JornalPDFURL   string

	// LLM
	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string

	// WhatsApp Cloud API
	WhatsAppToken     string
	WhatsAppPhoneID   string
	WhatsAppRecipient string

	// SMTP fallback (all five must be set for the email fallback to work)
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	EmailTo   string

	// Filesystem roots for intermediate and output artifacts
	DataDir   string
	OutputDir string

	Timeout    time.Duration
	MaxRetries int
	Simulate   bool
}

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Var string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Var)
}

// Load resolves the run configuration. When simulate is true, missing
// required variables are replaced with fixed placeholders so the whole
// pipeline can run end-to-end without real credentials. Load also ensures
// the data and output directory trees exist.
func Load(simulate bool) (*RunConfig, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	baseDir := envOr("JORNAL_AGENT_HOME", ".")

	cfg := &RunConfig{
		JornalLoginURL: envOr("JORNAL_LOGIN_URL", "https://exemplo-jornal.com.br/login"),
		JornalPDFURL:   envOr("JORNAL_PDF_URL", "https://exemplo-jornal.com.br/assinante/edicao"),

		LLMModel:   envOr("LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),

		WhatsAppRecipient: os.Getenv("WHATSAPP_RECIPIENT"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  envInt("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),
		EmailTo:   os.Getenv("EMAIL_TO"),

		DataDir:   envOr("DATA_DIR", filepath.Join(baseDir, "data")),
		OutputDir: envOr("OUTPUT_DIR", filepath.Join(baseDir, "output")),

		Timeout:    envDuration("TIMEOUT", 60*time.Second),
		MaxRetries: envInt("MAX_RETRIES", 3),
		Simulate:   simulate,
	}

	required := []struct {
		env         string
		dst         *string
		placeholder string
	}{
		{"JORNAL_USER", &cfg.JornalUser, "test_user"},
		{"JORNAL_PASS", &cfg.JornalPass, "test_pass"},
		{"LLM_API_KEY", &cfg.LLMAPIKey, "test_key"},
		{"WHATSAPP_TOKEN", &cfg.WhatsAppToken, "test_token"},
		{"WHATSAPP_PHONE_ID", &cfg.WhatsAppPhoneID, "test_phone_id"},
	}
	for _, r := range required {
		v := os.Getenv(r.env)
		if v == "" {
			if !simulate {
				return nil, &ConfigError{Var: r.env}
			}
			v = r.placeholder
		}
		*r.dst = v
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	for _, dir := range []string{cfg.DataDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// HasSMTP reports whether all five settings needed by the email fallback
// are present simultaneously.
func (c *RunConfig) HasSMTP() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != "" &&
		c.EmailFrom != "" && c.EmailTo != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Accept a bare number of seconds, as the scheduler environment uses.
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
