// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
)

// resetConfig restores the global config after a test that loads into it
func resetConfig(t *testing.T) {
	t.Helper()
	saved := *globalConfig
	t.Cleanup(func() {
		*globalConfig = saved
	})
}

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	resetConfig(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	params, lastPowHeight, err := cfg.ChainParams()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	mainnet := pow.SelectNetwork(pow.Mainnet)
	if params.Interval != mainnet.Params.Interval ||
		!params.PowLimit.Eq(mainnet.Params.PowLimit) ||
		lastPowHeight != mainnet.LastPoWHeight {
		t.Fatalf("unexpected default params: %#v, last PoW height %d", params, lastPowHeight)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	resetConfig(t)
	path := writeConfigFile(t, `
logging:
  level: debug
network:
  name: regtest
  interval: 20
  targetTimespan: 1200
  powLimit: "0x00ffff"
  lastPowHeight: 500
state:
  dir: /tmp/powcore-test
`)
	t.Setenv("NETWORK_TARGET_SPACING", "30")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.State.Directory != "/tmp/powcore-test" {
		t.Fatalf("state dir: got %q", cfg.State.Directory)
	}
	params, lastPowHeight, err := cfg.ChainParams()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if params.Interval != 20 || params.TargetSpacing != 30 || params.TargetTimespan != 1200 {
		t.Fatalf("unexpected timing params: %#v", params)
	}
	if !params.PowLimit.Eq(uint256.NewInt(0xffff)) {
		t.Fatalf("pow limit: got %s", params.PowLimit.Hex())
	}
	// Regtest skips the check even without the override
	if !params.SkipProofOfWorkCheck {
		t.Fatalf("expected proof-of-work check to be skipped")
	}
	if lastPowHeight != 500 {
		t.Fatalf("last PoW height: got %d, want 500", lastPowHeight)
	}
	// Overrides must not leak into the shared network table
	regtest := pow.SelectNetwork(pow.Regtest)
	if regtest.Params.Interval != 10 || regtest.Params.PowLimit.Eq(params.PowLimit) {
		t.Fatalf("network table was modified: %#v", regtest.Params)
	}
}

func TestLoadUnknownNetwork(t *testing.T) {
	resetConfig(t)
	t.Setenv("NETWORK", "nonexistent")
	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error for unknown network")
	}
	if !strings.Contains(err.Error(), "available networks: mainnet,regtest,testnet") {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestLoadBadFile(t *testing.T) {
	resetConfig(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
	path := writeConfigFile(t, "network: [\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}

func TestParseTarget(t *testing.T) {
	testDefs := []struct {
		input    string
		expected *uint256.Int
		wantErr  bool
	}{
		{input: "0x7fffff", expected: uint256.NewInt(0x7fffff)},
		{input: "fff", expected: uint256.NewInt(0xfff)},
		{input: "0X01", expected: uint256.NewInt(1)},
		{
			input:    "00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
			expected: new(uint256.Int).Rsh(new(uint256.Int).Not(new(uint256.Int)), 20),
		},
		{input: "", wantErr: true},
		{input: "0x", wantErr: true},
		{input: "xyz", wantErr: true},
		{input: strings.Repeat("ff", 33), wantErr: true},
	}
	for _, td := range testDefs {
		result, err := parseTarget(td.input)
		if td.wantErr {
			if err == nil {
				t.Fatalf("parseTarget(%q): expected error", td.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseTarget(%q): unexpected error: %s", td.input, err)
		}
		if !result.Eq(td.expected) {
			t.Fatalf("parseTarget(%q): got %s, want %s", td.input, result.Hex(), td.expected.Hex())
		}
	}
}
