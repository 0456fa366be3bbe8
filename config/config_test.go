package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/secretlootbid/sealing"
)

func envMap(values map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvContractAddress, EnvChainID, EnvRPCURL, EnvChainBackend, EnvProjectID, EnvMaxBid,
		EnvListenAddr, EnvSealingMode, EnvSealingKeyFile, EnvConfirmTimeout,
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	check.Equal(t, uint64(11155111), cfg.ChainID)
	check.Equal(t, DefaultProjectID, cfg.ProjectID)
	check.Equal(t, DefaultRPCURL, cfg.RPCURL)
	check.Equal(t, common.Address{}, cfg.Contract())
	check.Equal(t, "1000", cfg.MaxBid.String())
	check.Equal(t, sealing.ModeSimulated, cfg.SealingMode)
	check.Equal(t, BackendSimulated, cfg.ChainBackend)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		EnvContractAddress: "0x00000000000000000000000000000000000000c0",
		EnvChainID:         "1",
		EnvMaxBid:          "250.5",
		EnvSealingMode:     "HYBRID",
		EnvConfirmTimeout:  "45s",
		EnvListenAddr:      "",
	}))
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	check.Equal(t, common.HexToAddress("0xc0"), cfg.Contract())
	check.Equal(t, uint64(1), cfg.ChainID)
	check.Equal(t, "250.5", cfg.MaxBid.String())
	check.Equal(t, sealing.ModeHybrid, cfg.SealingMode)
	check.Equal(t, 45*time.Second, cfg.ConfirmTimeout)
	// Empty values keep the default
	check.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"chain id", map[string]string{EnvChainID: "sepolia"}},
		{"timeout", map[string]string{EnvConfirmTimeout: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Error(t, Default().applyEnv(envMap(tt.env)))
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"contract", func(c *Config) { c.ContractAddress = "0x123" }},
		{"chain id", func(c *Config) { c.ChainID = 0 }},
		{"backend", func(c *Config) { c.ChainBackend = "ganache" }},
		{"rpc url", func(c *Config) { c.ChainBackend = BackendRPC; c.RPCURL = "" }},
		{"sealing mode", func(c *Config) { c.SealingMode = "fhe" }},
		{"max bid format", func(c *Config) { c.MaxBidRaw = "lots" }},
		{"max bid zero", func(c *Config) { c.MaxBidRaw = "0" }},
		{"timeout", func(c *Config) { c.ConfirmTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			check.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "lootbid.yaml")
	content := `
contract_address: "0x00000000000000000000000000000000000000c0"
chain_id: 31337
chain_backend: rpc
rpc_url: http://127.0.0.1:8545
max_bid: "50"
sealing_mode: hybrid
confirm_timeout: 30s
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	assert.NoError(t, err)

	check.Equal(t, uint64(31337), cfg.ChainID)
	check.Equal(t, BackendRPC, cfg.ChainBackend)
	check.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	check.Equal(t, "50", cfg.MaxBid.String())
	check.Equal(t, sealing.ModeHybrid, cfg.SealingMode)
	check.Equal(t, 30*time.Second, cfg.ConfirmTimeout)
	check.Equal(t, DefaultProjectID, cfg.ProjectID)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	check.Error(t, err)
}

func TestPublic(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	pub := cfg.Public()
	check.Equal(t, "11155111", pub.ChainID)
	check.Equal(t, "0x0000000000000000000000000000000000000000", pub.ContractAddress)
	check.Equal(t, DefaultProjectID, pub.ProjectID)
	check.Equal(t, "Secret Loot Bid", pub.AppName)
	check.Equal(t, "simulated", pub.SealingMode)
}
