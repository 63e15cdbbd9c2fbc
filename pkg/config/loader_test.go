package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadConfig_MergesEnvAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
db:
  host: localhost
  port: 5432
  password: ${DB_PASSWORD}
triage:
  default_max_results: 5
`)
	writeFile(t, dir, "production.yaml", `
db:
  host: db.internal
`)
	writeFile(t, dir, "secrets.env", `
# comment
DB_PASSWORD="s3cret"
`)

	cfgMap, err := LoadConfig("production", dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	var got struct {
		Server ServerConfig `yaml:"server"`
		DB     DBConfig     `yaml:"db"`
		Triage TriageConfig `yaml:"triage"`
	}
	if err := Decode(cfgMap, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.DB.Host != "db.internal" {
		t.Errorf("db.host = %q, want db.internal", got.DB.Host)
	}
	if got.DB.Port != 5432 {
		t.Errorf("db.port = %d, want 5432 (kept from base)", got.DB.Port)
	}
	if got.DB.Password != "s3cret" {
		t.Errorf("db.password = %q, want substituted secret", got.DB.Password)
	}
	if got.Server.Port != ":8080" {
		t.Errorf("server.port = %q, want :8080", got.Server.Port)
	}
	if got.Triage.DefaultMaxResults != 5 {
		t.Errorf("triage.default_max_results = %d, want 5", got.Triage.DefaultMaxResults)
	}
}

func TestLoadConfig_MissingEnvFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":9090\"\n")

	cfgMap, err := LoadConfig("staging", dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := map[string]interface{}{"server": map[string]interface{}{"port": ":9090"}}
	if diff := cmp.Diff(want, cfgMap); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_MissingBase(t *testing.T) {
	if _, err := LoadConfig("local", t.TempDir()); err == nil {
		t.Fatal("expected error when base.yaml is missing")
	}
}

func TestDecode_Durations(t *testing.T) {
	cfgMap := map[string]interface{}{
		"summarizer": map[string]interface{}{"timeout": "45s", "min_length": 30},
	}
	var got struct {
		Summarizer SummarizerConfig `yaml:"summarizer"`
	}
	if err := Decode(cfgMap, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Summarizer.Timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", got.Summarizer.Timeout)
	}
	if got.Summarizer.MinLength != 30 {
		t.Errorf("min_length = %d, want 30", got.Summarizer.MinLength)
	}
}

func TestOverrideSummarizerFromEnv(t *testing.T) {
	t.Setenv("SUMMARIZER_BACKEND", "bedrock")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg := SummarizerConfig{Backend: "http"}
	OverrideSummarizerFromEnv(&cfg)

	if cfg.Backend != "bedrock" || cfg.Region != "eu-west-1" {
		t.Errorf("got %+v, want backend=bedrock region=eu-west-1", cfg)
	}
}
