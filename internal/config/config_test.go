package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		key, value string
		want       time.Duration
	}{
		{"AI_TIMEOUT", "12", 12 * time.Second},
		{"AI_TIMEOUT", "1500ms", 1500 * time.Millisecond},
		{"AI_TIMEOUT", "garbage", 8 * time.Second},
		{"CACHE_MINUTES", "5", 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Setenv(tt.key, tt.value)
		if got := getEnvAsDuration(tt.key, 8*time.Second); got != tt.want {
			t.Errorf("%s=%q: got %s, want %s", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	if !getEnvAsBool("OTEL_ENABLED", false) {
		t.Error("expected true")
	}
	t.Setenv("OTEL_ENABLED", "maybe")
	if getEnvAsBool("OTEL_ENABLED", false) {
		t.Error("unparseable value should fall back to default")
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	c := &Config{AITimeout: 0, AIHistoryDays: 7, WorkerCount: 0}
	err := c.validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"DATABASE_URL", "AI_TIMEOUT", "WORKER_COUNT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadDotEnv_RealEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "FLAREGUARD_TEST_A=from-file\nFLAREGUARD_TEST_B=\"quoted\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLAREGUARD_TEST_A", "from-env")
	t.Setenv("FLAREGUARD_TEST_B", "")
	os.Unsetenv("FLAREGUARD_TEST_B")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("FLAREGUARD_TEST_A"); got != "from-env" {
		t.Errorf("A = %q, want from-env", got)
	}
	if got := os.Getenv("FLAREGUARD_TEST_B"); got != "quoted" {
		t.Errorf("B = %q, want quoted", got)
	}
	os.Unsetenv("FLAREGUARD_TEST_B")
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/flareguard")
	for _, k := range []string{"AI_TIMEOUT", "AI_HISTORY_DAYS", "WORKER_COUNT", "RESEND_API_KEY", "ANTHROPIC_API_KEY", "DEEPSEEK_API_KEY"} {
		t.Setenv(k, "")
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AITimeout != 8*time.Second || c.AIHistoryDays != 7 || c.WeatherCacheTTL != 15*time.Minute {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.GenerativeEnabled() {
		t.Error("no provider keys set")
	}
}
