package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"stegtext/internal/config"
	"stegtext/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	chat       *testsupport.ChatServer
	configPath string
	baseDir    string
}

var testArticles = []testsupport.Article{
	{Category: "Economie", Title: "Omzet", Content: "Omzet 1234 5678 en 9012 ton", Datetime: "2021-03-01 10:00:00"},
	{Category: "Economie", Title: "Koers", Content: "De koers was 11 22 33 44 55 66 77 euro vandaag in Amsterdam", Datetime: "2021-03-02 10:00:00"},
	{Category: "economie", Title: "Jaar", Content: "In 2024 daalde de inflatie naar 1,23 procent en 4,56 procent", Datetime: "2021-03-03 10:00:00"},
	{Category: "Sport", Title: "Uitslag", Content: "Ajax won met 1234567890123 tegen niemand", Datetime: "2021-03-04 10:00:00"},
}

func setupCLITestEnv(t *testing.T, replies ...string) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("STEGTEXT_PERPLEXITY_URL", "")

	chat := testsupport.NewChatServer(t, replies...)
	scorer := testsupport.PerplexityServer(t, testsupport.LengthScore)
	cfg := testsupport.NewConfig(t,
		testsupport.WithLLMURL(chat.URL),
		testsupport.WithPerplexityURL(scorer.URL),
		testsupport.WithCorpusCSV(testArticles...),
	)
	cfg.Compare.Models = []string{"test/model"}
	cfg.Compare.Temperatures = []float64{0.5}
	cfg.Generation.MaxAttempts = 3

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "stegtext.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, chat: chat, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
