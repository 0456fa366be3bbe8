// Package config loads runtime settings for the loot-box bidding tools.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// then LOOTBID_* environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/secretlootbid/core"
	"github.com/cloudx-io/secretlootbid/sealing"
)

// Environment variable names.
const (
	EnvContractAddress = "LOOTBID_CONTRACT_ADDRESS"
	EnvChainID         = "LOOTBID_CHAIN_ID"
	EnvRPCURL          = "LOOTBID_RPC_URL"
	EnvChainBackend    = "LOOTBID_CHAIN_BACKEND"
	EnvProjectID       = "LOOTBID_WALLETCONNECT_PROJECT_ID"
	EnvMaxBid          = "LOOTBID_MAX_BID"
	EnvListenAddr      = "LOOTBID_LISTEN_ADDR"
	EnvSealingMode     = "LOOTBID_SEALING_MODE"
	EnvSealingKeyFile  = "LOOTBID_SEALING_KEY_FILE"
	EnvConfirmTimeout  = "LOOTBID_CONFIRM_TIMEOUT"
)

// Chain backends.
const (
	BackendSimulated = "simulated"
	BackendRPC       = "rpc"
)

// Defaults for the Sepolia deployment.
const (
	DefaultContractAddress = "0x0000000000000000000000000000000000000000"
	DefaultChainID         = 11155111
	DefaultRPCURL          = "https://sepolia.infura.io/v3/b18fb7e6ca7045ac83c41157ab93f990"
	DefaultProjectID       = "2ec9743d0d0cd7fb94dee1a7e6d33475"
	DefaultListenAddr      = ":8080"
	DefaultConfirmTimeout  = 2 * time.Minute
	AppName                = "Secret Loot Bid"
)

// Config holds every runtime setting.
type Config struct {
	AppName         string          `yaml:"app_name"`
	ContractAddress string          `yaml:"contract_address"`
	ChainID         uint64          `yaml:"chain_id"`
	RPCURL          string          `yaml:"rpc_url"`
	ChainBackend    string          `yaml:"chain_backend"`
	ProjectID       string          `yaml:"walletconnect_project_id"`
	MaxBid          decimal.Decimal `yaml:"-"`
	MaxBidRaw       string          `yaml:"max_bid"`
	ListenAddr      string          `yaml:"listen_addr"`
	SealingMode     sealing.Mode    `yaml:"sealing_mode"`
	SealingKeyFile  string          `yaml:"sealing_key_file"`
	ConfirmTimeout  time.Duration   `yaml:"confirm_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppName:         AppName,
		ContractAddress: DefaultContractAddress,
		ChainID:         DefaultChainID,
		RPCURL:          DefaultRPCURL,
		ChainBackend:    BackendSimulated,
		ProjectID:       DefaultProjectID,
		MaxBid:          core.DefaultMaxBidAmount,
		MaxBidRaw:       core.DefaultMaxBidAmount.String(),
		ListenAddr:      DefaultListenAddr,
		SealingMode:     sealing.ModeSimulated,
		ConfirmTimeout:  DefaultConfirmTimeout,
	}
}

// Load resolves the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		log.Printf("INFO: Loaded config from %s", path)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	c.ContractAddress = getEnvString(lookup, EnvContractAddress, c.ContractAddress)
	c.RPCURL = getEnvString(lookup, EnvRPCURL, c.RPCURL)
	c.ChainBackend = getEnvString(lookup, EnvChainBackend, c.ChainBackend)
	c.ProjectID = getEnvString(lookup, EnvProjectID, c.ProjectID)
	c.MaxBidRaw = getEnvString(lookup, EnvMaxBid, c.MaxBidRaw)
	c.ListenAddr = getEnvString(lookup, EnvListenAddr, c.ListenAddr)
	c.SealingMode = sealing.Mode(getEnvString(lookup, EnvSealingMode, string(c.SealingMode)))
	c.SealingKeyFile = getEnvString(lookup, EnvSealingKeyFile, c.SealingKeyFile)

	chainID, err := getEnvUint(lookup, EnvChainID, c.ChainID)
	if err != nil {
		return err
	}
	c.ChainID = chainID

	timeout, err := getEnvDuration(lookup, EnvConfirmTimeout, c.ConfirmTimeout)
	if err != nil {
		return err
	}
	c.ConfirmTimeout = timeout
	return nil
}

// Validate checks field formats and fills derived values.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("invalid contract address %q", c.ContractAddress)
	}
	if c.ChainID == 0 {
		return fmt.Errorf("chain id must be set")
	}

	switch c.ChainBackend {
	case BackendSimulated:
	case BackendRPC:
		if c.RPCURL == "" {
			return fmt.Errorf("rpc backend requires an rpc url")
		}
	default:
		return fmt.Errorf("unknown chain backend %q", c.ChainBackend)
	}

	mode, err := sealing.ParseMode(string(c.SealingMode))
	if err != nil {
		return err
	}
	c.SealingMode = mode

	maxBid, err := decimal.NewFromString(strings.TrimSpace(c.MaxBidRaw))
	if err != nil {
		return fmt.Errorf("invalid max bid %q: %w", c.MaxBidRaw, err)
	}
	if !maxBid.IsPositive() {
		return fmt.Errorf("max bid must be greater than 0, got %s", maxBid)
	}
	c.MaxBid = maxBid

	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm timeout must be positive, got %s", c.ConfirmTimeout)
	}
	return nil
}

// Contract returns the parsed contract address.
func (c *Config) Contract() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// Public is the subset of the configuration a browser client may see.
type Public struct {
	AppName         string `json:"app_name"`
	ChainID         string `json:"chain_id"`
	ContractAddress string `json:"contract_address"`
	RPCURL          string `json:"rpc_url"`
	ProjectID       string `json:"walletconnect_project_id"`
	MaxBid          string `json:"max_bid"`
	SealingMode     string `json:"sealing_mode"`
}

// Public returns the client-visible settings.
func (c *Config) Public() Public {
	return Public{
		AppName:         c.AppName,
		ChainID:         strconv.FormatUint(c.ChainID, 10),
		ContractAddress: c.Contract().Hex(),
		RPCURL:          c.RPCURL,
		ProjectID:       c.ProjectID,
		MaxBid:          c.MaxBid.String(),
		SealingMode:     string(c.SealingMode),
	}
}

func getEnvString(lookup lookupFunc, key, fallback string) string {
	value, ok := lookup(key)
	if !ok || value == "" {
		return fallback
	}
	log.Printf("INFO: Using %s from environment", key)
	return value
}

func getEnvUint(lookup lookupFunc, key string, fallback uint64) (uint64, error) {
	value, ok := lookup(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid unsigned integer)", key, value)
	}
	log.Printf("INFO: Using %s=%d from environment", key, parsed)
	return parsed, nil
}

func getEnvDuration(lookup lookupFunc, key string, fallback time.Duration) (time.Duration, error) {
	value, ok := lookup(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a duration like 90s)", key, value)
	}
	log.Printf("INFO: Using %s=%s from environment", key, parsed)
	return parsed, nil
}
