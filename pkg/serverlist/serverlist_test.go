package serverlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "servers.yml")
	require.NoError(t, os.WriteFile(p, []byte(`
servers:
  - name: Official
    url: https://screeps.com
  - name: Local
    url: http://localhost:21025
`), 0o644))

	servers, err := Load(p)
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "Official", servers[0].Name)
	assert.Equal(t, "http://localhost:21025", servers[1].URL)
}

func TestLoadMissingFile(t *testing.T) {
	servers, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestLoadEmptyPath(t *testing.T) {
	servers, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestLoadMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "servers.yml")
	require.NoError(t, os.WriteFile(p, []byte("servers: [unclosed"), 0o644))

	_, err := Load(p)
	assert.Error(t, err)
}
