package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hotdogs-ns/hns/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
rpcUrl: https://api.testnet.abs.xyz
managerAddress: "0x1111111111111111111111111111111111111111"
callTimeoutMs: 5000
port: ":9000"
ipWhitelist:
  - 127.0.0.1
  - " "
useSqlite: true
`

func writeConfig(t *testing.T, body string) string {
	p := filepath.Join(t.TempDir(), "hns.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0600))
	return p
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.NoError(t, c.Validate())
	assert.Equal(t, ":9000", c.Port)
	assert.Equal(t, 5*time.Second, c.CallTimeout())
	// untouched keys keep their defaults
	assert.Equal(t, 10, c.TldRefreshInterval)
	assert.True(t, c.ArchiveEnabled())
	assert.Equal(t, map[string]struct{}{"127.0.0.1": {}}, c.IpWhiteList())
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, c.CallTimeout())
	assert.False(t, c.ArchiveEnabled())
	assert.ErrorIs(t, c.Validate(), schema.ErrRpcNotConfigured)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = Load(writeConfig(t, "rpcUrl: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.RpcUrl = "http://127.0.0.1:8545"
	c.ManagerAddress = "0xnot"
	assert.ErrorIs(t, c.Validate(), schema.ErrRpcNotConfigured)

	c.ManagerAddress = "0x1111111111111111111111111111111111111111"
	assert.NoError(t, c.Validate())

	c.RatePeriod = "W"
	assert.Error(t, c.Validate())
}

func TestUpdateIPWhiteList(t *testing.T) {
	p := writeConfig(t, sample)
	c, err := Load(p)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p, []byte("ipWhitelist: [10.0.0.1, 10.0.0.2]\n"), 0600))
	c.updateIPWhiteList()
	assert.Len(t, c.IpWhiteList(), 2)

	// a broken file keeps the previous list
	require.NoError(t, os.WriteFile(p, []byte("ipWhitelist: [oops"), 0600))
	c.updateIPWhiteList()
	assert.Len(t, c.IpWhiteList(), 2)
}
