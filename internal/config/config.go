package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/celo-org/gas-snap/internal/entity"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	ChainID   string           `yaml:"chainId"` // hex or decimal id of the network to operate on
	Networks  []entity.Network `yaml:"networks"`
	RpcClient RpcClientConfig  `yaml:"rpcClient"`
	Resolver  ResolverConfig   `yaml:"resolver"`
	Dialog    DialogConfig     `yaml:"dialog"`
	Signer    SignerConfig     `yaml:"signer"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// RpcClientConfig holds configuration for the chain RPC client.
type RpcClientConfig struct {
	ConnectionTimeoutMs int64 `yaml:"connectionTimeoutMs"`
	CallTimeoutMs       int64 `yaml:"callTimeoutMs"`
	RateLimit           int   `yaml:"rateLimit"`
	BurstLimit          int   `yaml:"burstLimit"`
	ReceiptPollMs       int64 `yaml:"receiptPollMs"`
	ReceiptTimeoutMs    int64 `yaml:"receiptTimeoutMs"`
}

// ResolverConfig holds configuration for the fee-currency resolver.
type ResolverConfig struct {
	MaxConcurrentFetches     int `yaml:"maxConcurrentFetches"`
	RateCacheTTLSeconds      int `yaml:"rateCacheTTLSeconds"`
	WhitelistCacheTTLSeconds int `yaml:"whitelistCacheTTLSeconds"`
}

// DialogConfig holds the configuration for the dialog-bridge client.
type DialogConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// SignerConfig holds the managed signing accounts. Each entry is a hex
// private key; order matters for default-account selection.
type SignerConfig struct {
	Accounts []string `yaml:"accounts"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g. "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// anything left unset.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.applyDefaults()

	if cfg.Dialog.BaseURL == "" {
		logrus.Warn("dialog.baseURL not set; user dialogs will fail until it is configured")
	}
	if len(cfg.Signer.Accounts) == 0 {
		logrus.Warn("No signing accounts configured; transaction submission will fail until signer.accounts is set")
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		// Submission waits for a mined receipt, so the write timeout is long.
		cfg.Server.WriteTimeout = 180
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.ChainID == "" {
		cfg.ChainID = "0xaef3" // Alfajores
		logrus.Infof("chainId not set, defaulting to %s", cfg.ChainID)
	}

	if cfg.RpcClient.ConnectionTimeoutMs == 0 {
		cfg.RpcClient.ConnectionTimeoutMs = 10000
	}
	if cfg.RpcClient.CallTimeoutMs == 0 {
		cfg.RpcClient.CallTimeoutMs = 10000
	}
	if cfg.RpcClient.RateLimit == 0 {
		cfg.RpcClient.RateLimit = 20
	}
	if cfg.RpcClient.BurstLimit == 0 {
		cfg.RpcClient.BurstLimit = 40
	}
	if cfg.RpcClient.ReceiptPollMs == 0 {
		cfg.RpcClient.ReceiptPollMs = 2000
	}
	if cfg.RpcClient.ReceiptTimeoutMs == 0 {
		cfg.RpcClient.ReceiptTimeoutMs = 120000
	}

	if cfg.Resolver.MaxConcurrentFetches == 0 {
		cfg.Resolver.MaxConcurrentFetches = 8
	}
	if cfg.Resolver.RateCacheTTLSeconds == 0 {
		cfg.Resolver.RateCacheTTLSeconds = 30
	}
	if cfg.Resolver.WhitelistCacheTTLSeconds == 0 {
		cfg.Resolver.WhitelistCacheTTLSeconds = 300
	}

	if cfg.Dialog.RequestTimeoutMillis == 0 {
		// Human responses are slow; this bounds how long a prompt may stay open.
		cfg.Dialog.RequestTimeoutMillis = 300000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
