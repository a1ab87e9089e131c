// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package indexer

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blinklabs-io/powcore/chain"
	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/internal/metrics"
	"github.com/blinklabs-io/powcore/internal/state"
	"github.com/blinklabs-io/powcore/pow"
)

type Indexer struct {
	index *chain.Index
	state *state.State
}

// Singleton indexer instance
var globalIndexer = &Indexer{}

func (i *Indexer) Start() error {
	cfg := config.GetConfig()
	logger := logging.GetLogger()
	params, lastPowHeight, err := cfg.ChainParams()
	if err != nil {
		return err
	}
	if err := i.Init(params, lastPowHeight, state.GetState()); err != nil {
		return err
	}
	if cfg.Indexer.HeadersFile == "" {
		return nil
	}
	f, err := os.Open(cfg.Indexer.HeadersFile)
	if err != nil {
		return fmt.Errorf("failed to open headers file: %w", err)
	}
	defer f.Close()
	count, err := i.Import(f)
	if err != nil {
		return err
	}
	logger.Infof(
		"imported %d headers from %s",
		count,
		cfg.Indexer.HeadersFile,
	)
	return nil
}

// Init creates a fresh block index and replays the headers persisted in st
func (i *Indexer) Init(params pow.ChainParams, lastPowHeight int64, st *state.State) error {
	logger := logging.GetLogger()
	index, err := chain.New(params, lastPowHeight)
	if err != nil {
		return err
	}
	i.index = index
	i.state = st
	err = st.ForEachHeader(func(header *pow.BlockHeader) error {
		if _, err := i.index.Accept(header); err != nil {
			return fmt.Errorf("failed to restore header %x: %w", header.Hash(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	tip, ok := i.index.Tip()
	if !ok {
		return nil
	}
	hash, _ := i.index.Hash(tip.ID)
	logger.Infof(
		"restored %d headers, tip %x at height %d",
		i.index.Len(),
		hash,
		tip.Height,
	)
	metrics.TipHeight.Set(float64(tip.Height))
	storedTip, found, err := st.GetTip()
	if err != nil {
		return fmt.Errorf("failed to read stored tip: %w", err)
	}
	if found && storedTip == hash {
		return nil
	}
	if found {
		logger.Warnf("stored tip %x does not match restored tip %x, updating", storedTip, hash)
	} else {
		logger.Warnf("no stored tip, recording restored tip %x", hash)
	}
	if err := st.UpdateTip(hash); err != nil {
		return fmt.Errorf("failed to update tip: %w", err)
	}
	return nil
}

// Import reads hex-encoded headers, one per line, and accepts them into the
// index. Blank lines and lines starting with '#' are skipped. Rejected or
// malformed headers are logged and skipped. It returns the number of
// accepted headers.
func (i *Indexer) Import(r io.Reader) (int, error) {
	logger := logging.GetLogger()
	var count int
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		headerBytes, err := hex.DecodeString(line)
		if err != nil {
			logger.Warnf("line %d: bad header hex: %s", lineNum, err)
			metrics.HeadersRejected.WithLabelValues("malformed").Inc()
			continue
		}
		header, err := pow.NewBlockHeaderFromBytes(headerBytes)
		if err != nil {
			logger.Warnf("line %d: %s", lineNum, err)
			metrics.HeadersRejected.WithLabelValues("malformed").Inc()
			continue
		}
		accepted, err := i.AddHeader(header)
		if err != nil {
			return count, err
		}
		if accepted {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read headers: %w", err)
	}
	return count, nil
}

// AddHeader validates a header and persists it if it is accepted. Only
// storage failures are returned as errors. The header is stored before it is
// linked into the index, so the index never holds a block the store lacks.
func (i *Indexer) AddHeader(header *pow.BlockHeader) (bool, error) {
	logger := logging.GetLogger()
	hash := header.Hash()
	prevTip, hadTip := i.index.Tip()
	var storeErr error
	id, err := i.index.AcceptAndStore(
		header,
		func(height int64, header *pow.BlockHeader) error {
			storeErr = i.state.PutHeader(height, header)
			return storeErr
		},
	)
	if storeErr != nil {
		return false, fmt.Errorf("failed to store header %x: %w", hash, storeErr)
	}
	if err != nil {
		reason := rejectReason(err)
		logger.Warnf("rejected header %x: %s", hash, err)
		metrics.HeadersRejected.WithLabelValues(reason).Inc()
		return false, nil
	}
	node, _ := i.index.Node(id)
	metrics.HeadersAccepted.Inc()
	metrics.Retargets.WithLabelValues(i.index.ModeForHeight(node.Height).String()).Inc()
	tip, _ := i.index.Tip()
	if !hadTip || tip.ID != prevTip.ID {
		tipHash, _ := i.index.Hash(tip.ID)
		if err := i.state.UpdateTip(tipHash); err != nil {
			return false, fmt.Errorf("failed to update tip: %w", err)
		}
		metrics.TipHeight.Set(float64(tip.Height))
		logger.Debugf("new tip %x at height %d", tipHash, tip.Height)
	}
	return true, nil
}

func (i *Indexer) Index() *chain.Index {
	return i.index
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, chain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, chain.ErrOrphan):
		return "orphan"
	case errors.Is(err, chain.ErrBadBits):
		return "bad_bits"
	case errors.Is(err, chain.ErrBadProofOfWork):
		return "bad_pow"
	case errors.Is(err, pow.ErrInsufficientHistory):
		return "insufficient_history"
	default:
		return "other"
	}
}

// GetIndexer returns the global indexer instance
func GetIndexer() *Indexer {
	return globalIndexer
}
