// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/indexer"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/internal/metrics"
	"github.com/blinklabs-io/powcore/internal/state"
	"github.com/blinklabs-io/powcore/internal/version"
)

var cmdlineFlags struct {
	configFile string
}

func main() {
	flag.StringVar(
		&cmdlineFlags.configFile,
		"config",
		"",
		"path to config file to load",
	)
	flag.Parse()

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	// Configure logging
	logging.Setup()
	logger := logging.GetLogger()
	// Sync logger on exit
	defer func() {
		if err := logger.Sync(); err != nil {
			// We don't actually care about the error here, but we have to do something
			// to appease the linter
			return
		}
	}()

	logger.Info(
		version.GetProgramVersion("powcored") + " started",
	)
	logger.Infof("using network %s", cfg.Network.Name)

	// Load state
	if err := state.GetState().Load(); err != nil {
		logger.Fatalf("failed to load state: %s", err)
	}
	defer func() {
		if err := state.GetState().Close(); err != nil {
			logger.Errorf("failed to close state: %s", err)
		}
	}()

	// Start debug listener
	if cfg.Debug.ListenPort > 0 {
		logger.Infof(
			"starting debug listener on %s:%d",
			cfg.Debug.ListenAddress,
			cfg.Debug.ListenPort,
		)
		go func() {
			// #nosec G114 -- debug listener only
			err := http.ListenAndServe(
				fmt.Sprintf(
					"%s:%d",
					cfg.Debug.ListenAddress,
					cfg.Debug.ListenPort,
				),
				nil,
			)
			if err != nil {
				logger.Fatalf("failed to start debug listener: %s", err)
			}
		}()
	}

	// Start metrics listener
	if cfg.Metrics.ListenPort > 0 {
		logger.Infof(
			"starting metrics listener on %s:%d",
			cfg.Metrics.ListenAddress,
			cfg.Metrics.ListenPort,
		)
	}
	if err := metrics.Start(); err != nil {
		logger.Fatalf("failed to start metrics listener: %s", err)
	}

	// Start indexer
	if err := indexer.GetIndexer().Start(); err != nil {
		logger.Fatalf("failed to start indexer: %s", err)
	}
	idx := indexer.GetIndexer().Index()
	if tip, ok := idx.Tip(); ok {
		work, _ := idx.ChainWork(tip.ID)
		logger.Infof(
			"chain tip at height %d, bits %08x, chain work %s",
			tip.Height,
			tip.Bits,
			work.Hex(),
		)
	} else {
		logger.Infof("block index is empty")
	}

	// Keep serving metrics
	if cfg.Metrics.ListenPort == 0 {
		return
	}
	select {}
}
