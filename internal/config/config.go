// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Debug   DebugConfig   `yaml:"debug"`
	Network NetworkConfig `yaml:"network"`
	State   StateConfig   `yaml:"state"`
	Indexer IndexerConfig `yaml:"indexer"`
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"DEBUG_PORT"`
}

type MetricsConfig struct {
	ListenAddress string `yaml:"address" envconfig:"METRICS_LISTEN_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"METRICS_LISTEN_PORT"`
}

// NetworkConfig selects a network and optionally overrides its parameters.
// Zero values keep the network default.
type NetworkConfig struct {
	Name           string `yaml:"name"           envconfig:"NETWORK"`
	Interval       int64  `yaml:"interval"       envconfig:"NETWORK_INTERVAL"`
	TargetSpacing  int64  `yaml:"targetSpacing"  envconfig:"NETWORK_TARGET_SPACING"`
	TargetTimespan int64  `yaml:"targetTimespan" envconfig:"NETWORK_TARGET_TIMESPAN"`
	PowLimit       string `yaml:"powLimit"       envconfig:"NETWORK_POW_LIMIT"`
	SkipPowCheck   bool   `yaml:"skipPowCheck"   envconfig:"NETWORK_SKIP_POW_CHECK"`
	LastPowHeight  int64  `yaml:"lastPowHeight"  envconfig:"NETWORK_LAST_POW_HEIGHT"`
}

type StateConfig struct {
	Directory string `yaml:"dir" envconfig:"STATE_DIR"`
}

type IndexerConfig struct {
	HeadersFile string `yaml:"headersFile" envconfig:"INDEXER_HEADERS_FILE"`
}

// Singleton config instance with default values
var globalConfig = &Config{
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Metrics: MetricsConfig{
		ListenAddress: "",
		ListenPort:    8081,
	},
	Network: NetworkConfig{
		Name: string(pow.Mainnet),
	},
	State: StateConfig{
		Directory: "./.state",
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Check network and overrides
	if _, _, err := globalConfig.ChainParams(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

// ChainParams resolves the configured network and its overrides. It
// returns the chain parameters and the last proof-of-work height.
func (c *Config) ChainParams() (pow.ChainParams, int64, error) {
	network := pow.SelectNetwork(pow.NetworkType(c.Network.Name))
	if network == nil {
		return pow.ChainParams{}, 0, fmt.Errorf(
			"unknown network: %s: available networks: %s",
			c.Network.Name,
			strings.Join(pow.AvailableNetworks(), ","),
		)
	}
	// Copy so that overrides don't touch the shared network table
	params := network.Params
	params.PowLimit = new(uint256.Int).Set(network.Params.PowLimit)
	lastPowHeight := network.LastPoWHeight
	if c.Network.Interval != 0 {
		params.Interval = c.Network.Interval
	}
	if c.Network.TargetSpacing != 0 {
		params.TargetSpacing = c.Network.TargetSpacing
	}
	if c.Network.TargetTimespan != 0 {
		params.TargetTimespan = c.Network.TargetTimespan
	}
	if c.Network.PowLimit != "" {
		limit, err := parseTarget(c.Network.PowLimit)
		if err != nil {
			return pow.ChainParams{}, 0, fmt.Errorf("invalid powLimit: %w", err)
		}
		params.PowLimit = limit
	}
	if c.Network.SkipPowCheck {
		params.SkipProofOfWorkCheck = true
	}
	if c.Network.LastPowHeight != 0 {
		lastPowHeight = c.Network.LastPowHeight
	}
	if err := params.Validate(); err != nil {
		return pow.ChainParams{}, 0, fmt.Errorf("invalid network parameters: %w", err)
	}
	return params, lastPowHeight, nil
}

// parseTarget parses a hex target of up to 64 digits, with optional 0x prefix
func parseTarget(s string) (*uint256.Int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, errors.New("empty target")
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf) > 32 {
		return nil, fmt.Errorf("target is %d bytes, maximum is 32", len(buf))
	}
	return new(uint256.Int).SetBytes(buf), nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}
