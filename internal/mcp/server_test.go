package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/jaggdy/internal/config"
	"github.com/nvandessel/jaggdy/internal/ratelimit"
)

// setupTestServer creates a server with default settings and an audit log in
// a temp directory. It returns the server and the audit directory.
func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	auditDir := filepath.Join(t.TempDir(), "trace")
	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Settings: config.Default(),
		AuditDir: auditDir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server, auditDir
}

func TestNewServer(t *testing.T) {
	server, auditDir := setupTestServer(t)

	assert.NotNil(t, server.server)
	assert.NotNil(t, server.settings)
	assert.NotNil(t, server.auditLogger)
	assert.FileExists(t, filepath.Join(auditDir, "audit.jsonl"))
}

func TestNewServer_DefaultSettings(t *testing.T) {
	server, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0"})
	require.NoError(t, err)
	defer server.Close()

	assert.Equal(t, config.Default().Chain.MaxStates, server.settings.Chain.MaxStates)
	assert.Nil(t, server.auditLogger, "audit logger should be nil without AuditDir")
}

func TestNewServer_InvalidSettings(t *testing.T) {
	settings := config.Default()
	settings.Chain.Horizon = 0

	_, err := NewServer(&Config{Name: "test-server", Settings: settings})
	assert.Error(t, err)
}

func TestNewServer_HasRateLimiters(t *testing.T) {
	server, _ := setupTestServer(t)

	for _, tool := range []string{
		ratelimit.ToolScenarios,
		ratelimit.ToolModels,
		ratelimit.ToolCandidates,
		ratelimit.ToolSimulate,
		ratelimit.ToolChain,
	} {
		assert.Contains(t, server.toolLimiters, tool)
	}
}

func TestClose(t *testing.T) {
	server, _ := setupTestServer(t)

	assert.NoError(t, server.Close())
	assert.NoError(t, server.Close(), "second Close")
}

func TestNewServer_AuditDirUnusable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	server, err := NewServer(&Config{Name: "test-server", AuditDir: filepath.Join(file, "trace")})
	require.NoError(t, err, "an unusable audit dir disables auditing")
	defer server.Close()
	assert.Nil(t, server.auditLogger)
}
