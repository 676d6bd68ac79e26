package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCmd runs the root command with args and returns captured stdout
// and any error. Persistent flags are reset because rootCmd is shared.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--env-file=", "--verbose=false"}, args...))
	err := rootCmd.Execute()

	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
watch:
  strategy: push
serve:
  port: 8080
  probe_interval: 10s
  servers:
    - name: DNS
      host: 8.8.8.8
    - name: API
      host: https://api.example.com/health
      probe: http
`)

	output, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Status URL:     http://localhost:8080",
		"Strategy:       push",
		"Port:           8080",
		"Probe interval: 10s",
		"1 icmp + 1 http = 2 total",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
serve:
  servers:
    - name: ""
      host: 8.8.8.8
`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}

	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("error should mention 'name is required', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestRunValidate_EnvFile(t *testing.T) {
	const key = "STATUSBOARD_CLI_TEST_URL"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte(key+"=http://status.from-env:7070\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	configPath := writeConfig(t, "watch:\n  url: ${"+key+"}\n")

	// without the env file the variable is unresolved
	if _, err := executeCmd(t, "validate", "-c", configPath); err == nil {
		t.Fatal("validate without env file: expected error, got nil")
	}

	output, err := executeCmd(t, "--env-file", envPath, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	if !strings.Contains(output, "http://status.from-env:7070") {
		t.Errorf("output missing env URL\nGot: %s", output)
	}
}

func TestRunValidate_MissingEnvFile(t *testing.T) {
	configPath := writeConfig(t, "watch:\n  url: http://localhost:8080\n")

	_, err := executeCmd(t, "--env-file", "/nonexistent/.env", "validate", "-c", configPath)
	if err == nil || !strings.Contains(err.Error(), "failed to load env file") {
		t.Errorf("error = %v, want env file error", err)
	}
}

func TestVersion(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.HasPrefix(output, "statusboard dev\n") {
		t.Errorf("output = %q", output)
	}
}
