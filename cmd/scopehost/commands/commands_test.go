package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestServicesCommand(t *testing.T) {
	out := execute(t, "services")

	assert.Contains(t, out, "Warmup (start #1)")
	assert.Contains(t, out, "CronService (start #2)")
	assert.Contains(t, out, "BackgroundService (start #3)")
	assert.Contains(t, out, "○ scoped    *scopehost.Host")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scopehost.yaml")

	out := execute(t, "config", "init", path)
	assert.Contains(t, out, "wrote "+path)

	t.Setenv("SCOPEHOST_SCOPES", "3")
	out = execute(t, "--config", path, "config", "show")
	assert.Contains(t, out, "scopes: 3")
	assert.Contains(t, out, "startup_timeout: infinite")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Setenv("SCOPEHOST_LOGGING_FORMAT", "xml")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run"})
	assert.Error(t, cmd.Execute())
}
