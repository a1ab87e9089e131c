// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/version"
	"github.com/blinklabs-io/powcore/pow"
)

var cmdlineFlags struct {
	configFile string
	network    string
	bits       string
	hash       string
	header     string
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.StringVar(&cmdlineFlags.network, "network", "", "network to check against (overrides config)")
	flag.StringVar(&cmdlineFlags.bits, "bits", "", "compact target to inspect, in hex")
	flag.StringVar(&cmdlineFlags.hash, "hash", "", "block hash to check against -bits, in hex")
	flag.StringVar(&cmdlineFlags.header, "header", "", "serialized block header to check, in hex (overrides -bits and -hash)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}
	if cmdlineFlags.network != "" {
		cfg.Network.Name = cmdlineFlags.network
	}
	params, _, err := cfg.ChainParams()
	if err != nil {
		fmt.Printf("Failed to load network parameters: %s\n", err)
		os.Exit(1)
	}

	if err := run(os.Stdout, cfg.Network.Name, &params); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, network string, params *pow.ChainParams) error {
	var bits uint32
	var hash *[32]byte
	switch {
	case cmdlineFlags.header != "":
		headerBytes, err := hex.DecodeString(cmdlineFlags.header)
		if err != nil {
			return fmt.Errorf("bad header hex: %w", err)
		}
		header, err := pow.NewBlockHeaderFromBytes(headerBytes)
		if err != nil {
			return err
		}
		bits = header.Bits
		tmpHash := header.Hash()
		hash = &tmpHash
	case cmdlineFlags.bits != "":
		tmpBits, err := strconv.ParseUint(
			strings.TrimPrefix(cmdlineFlags.bits, "0x"),
			16,
			32,
		)
		if err != nil {
			return fmt.Errorf("bad bits: %w", err)
		}
		// #nosec G115 -- parsed as 32 bits
		bits = uint32(tmpBits)
		if cmdlineFlags.hash != "" {
			tmpHash, err := parseHash(cmdlineFlags.hash)
			if err != nil {
				return err
			}
			hash = &tmpHash
		}
	case cmdlineFlags.hash != "":
		return errors.New("-hash requires -bits")
	default:
		return errors.New("one of -bits or -header is required")
	}

	target, negative, overflow := pow.CompactToTarget(bits)
	fmt.Fprintln(w, version.GetProgramVersion("powcheck"))
	fmt.Fprintf(w, "network:   %s\n", network)
	fmt.Fprintf(w, "bits:      %08x\n", bits)
	fmt.Fprintf(w, "target:    %x\n", target.Bytes32())
	fmt.Fprintf(w, "negative:  %t\n", negative)
	fmt.Fprintf(w, "overflow:  %t\n", overflow)
	fmt.Fprintf(w, "canonical: %08x\n", pow.TargetToCompact(target))
	fmt.Fprintf(w, "work:      %s\n", pow.BlockProof(bits).Dec())
	if hash != nil {
		fmt.Fprintf(w, "hash:      %x\n", *hash)
		fmt.Fprintf(
			w,
			"valid:     %t\n",
			pow.CheckProofOfWork(pow.HashToInt(*hash), bits, params),
		)
	}
	return nil
}

func parseHash(s string) ([32]byte, error) {
	var ret [32]byte
	hashBytes, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return ret, fmt.Errorf("bad hash hex: %w", err)
	}
	if len(hashBytes) > 32 {
		return ret, fmt.Errorf("hash is %d bytes, maximum is 32", len(hashBytes))
	}
	// Left pad short hashes
	copy(ret[32-len(hashBytes):], hashBytes)
	return ret, nil
}
