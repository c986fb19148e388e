package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/papermark")
	t.Setenv(EnvPort, "9001")
	t.Setenv(EnvQuestions, "q.yaml")
	t.Setenv(EnvCorpus, "papers.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/papermark", cfg.DataDir)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "q.yaml", cfg.QuestionsPath)
	assert.Equal(t, "papers.csv", cfg.CorpusPath)
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DataDir: "data", Port: 8714}
	require.Error(t, cfg.Validate())

	cfg.QuestionsPath = "q.yaml"
	require.Error(t, cfg.Validate())

	cfg.CorpusPath = "papers.csv"
	require.NoError(t, cfg.Validate())

	cfg.Port = 0
	require.Error(t, cfg.Validate())
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/papermark"}
	assert.Equal(t, filepath.Join("/var/lib/papermark", "session.json"), cfg.SessionPath())
	assert.Equal(t, filepath.Join("/var/lib/papermark", "results.json"), cfg.ExportPath())
}
