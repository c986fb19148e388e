// Package config resolves runtime settings from the environment, with a
// .env file as optional local override. Flags on the CLI win over the
// environment; the environment wins over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDataDir   = "PAPERMARK_DATA_DIR"
	EnvPort      = "PAPERMARK_PORT"
	EnvQuestions = "PAPERMARK_QUESTIONS"
	EnvCorpus    = "PAPERMARK_CORPUS"
	EnvSanity    = "PAPERMARK_SANITY_RULES"
)

// Defaults.
const (
	DefaultDataDir = "data"
	DefaultPort    = 8714
)

// Config holds the resolved runtime settings.
type Config struct {
	// DataDir holds the recovery and export files.
	DataDir string

	// Port is the localhost port the web shell listens on.
	Port int

	// QuestionsPath locates the questionnaire YAML. Required.
	QuestionsPath string

	// CorpusPath locates the corpus CSV. Required.
	CorpusPath string

	// SanityRulesPath locates the optional sanity-check rules YAML;
	// empty disables sanity checking.
	SanityRulesPath string
}

// Load resolves configuration from the environment. A .env file in the
// working directory is read first when present; real environment
// variables take precedence over it (godotenv does not overwrite).
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		DataDir:         getEnv(EnvDataDir, DefaultDataDir),
		QuestionsPath:   os.Getenv(EnvQuestions),
		CorpusPath:      os.Getenv(EnvCorpus),
		SanityRulesPath: os.Getenv(EnvSanity),
	}

	port, err := getEnvInt(EnvPort, DefaultPort)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	return cfg, nil
}

// Validate checks that the required inputs are set and readable.
// Called after CLI flags have been merged in.
func (c *Config) Validate() error {
	if c.QuestionsPath == "" {
		return fmt.Errorf("questionnaire path is required (set %s or pass --questions)", EnvQuestions)
	}
	if c.CorpusPath == "" {
		return fmt.Errorf("corpus path is required (set %s or pass --corpus)", EnvCorpus)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// SessionPath returns the recovery file location under DataDir.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}

// ExportPath returns the results file location under DataDir.
func (c *Config) ExportPath() string {
	return filepath.Join(c.DataDir, "results.json")
}

// EnsureDataDir creates DataDir when missing.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", c.DataDir, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return n, nil
}
