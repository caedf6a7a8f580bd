package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	configPath, err := writeConfigFixture(home, 60000)
	require.NoError(t, err)

	stdout, stderr, err := runGoalpanel(t, binaryPath, home, "--config", configPath, "wake", "--once", "--mock")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "DAYS TO GOAL")

	stdout, stderr, err = runGoalpanel(t, binaryPath, home, "--config", configPath, "cache", "show")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "3750")
}

func TestExecModeRestartsWithRetainedSnapshot(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	configPath, err := writeConfigFixture(home, 1000)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "--config", configPath, "wake", "--mock")
	cmd.Env = append(os.Environ(), "HOME="+home)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &bytes.Buffer{}

	// The process never exits on its own; it is killed by the context.
	_ = cmd.Run()

	logs := stderr.String()
	assert.GreaterOrEqual(t, strings.Count(logs, "goalpanel starting"), 2, "logs: %s", logs)
	assert.Contains(t, logs, "loaded cached snapshot from previous wake")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "goalpanel-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/goalpanel")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build goalpanel binary: %s", string(output))
	return binaryPath
}

func runGoalpanel(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfigFixture(home string, intervalMS int) (string, error) {
	configDir := filepath.Join(home, "goalpanel")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}

	config := fmt.Sprintf(`[api]
mock = true

[time]
ntp_servers = []

[display]
power_pin = -1

[schedule]
update_interval_ms = %d
settle = "1ms"

[cache]
path = %q
`, intervalMS, filepath.Join(home, "shm", "retained.bin"))

	path := filepath.Join(configDir, "config.toml")
	return path, os.WriteFile(path, []byte(config), 0o644)
}
