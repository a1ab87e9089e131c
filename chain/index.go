// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package chain maintains an in-memory block index: an arena of headers
// linked to their parents by NodeID, with cumulative chain work and a best
// tip chosen by most work.
package chain

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
)

var (
	ErrDuplicate      = errors.New("duplicate block")
	ErrOrphan         = errors.New("unknown parent block")
	ErrBadBits        = errors.New("incorrect difficulty bits")
	ErrBadProofOfWork = errors.New("proof of work check failed")
	ErrIndexFull      = errors.New("block index is full")
)

type node struct {
	info      pow.IndexNode
	hash      [32]byte
	chainWork *uint256.Int
}

type Index struct {
	mu            sync.RWMutex
	params        pow.ChainParams
	lastPoWHeight int64
	nodes         []node
	byHash        map[[32]byte]pow.NodeID
	best          pow.NodeID
}

func New(params pow.ChainParams, lastPoWHeight int64) (*Index, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Index{
		params:        params,
		lastPoWHeight: lastPoWHeight,
		byHash:        make(map[[32]byte]pow.NodeID),
		best:          pow.NoNode,
	}, nil
}

func (i *Index) Params() *pow.ChainParams {
	return &i.params
}

// ModeForHeight returns the retarget rule for a block at the given height
func (i *Index) ModeForHeight(height int64) pow.ConsensusMode {
	if height <= i.lastPoWHeight {
		return pow.ProofOfWork
	}
	return pow.ProofOfStake
}

// Node implements pow.BlockIndexView. Linked nodes never change, so a walk
// over several Node calls sees a consistent chain even while Accept runs.
func (i *Index) Node(id pow.NodeID) (pow.IndexNode, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return arenaView{i}.Node(id)
}

// arenaView reads the arena without locking, for use while the caller holds
// the index lock
type arenaView struct {
	index *Index
}

func (v arenaView) Node(id pow.NodeID) (pow.IndexNode, bool) {
	if id < 0 || int(id) >= len(v.index.nodes) {
		return pow.IndexNode{}, false
	}
	return v.index.nodes[id].info, true
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.nodes)
}

func (i *Index) Lookup(hash [32]byte) (pow.IndexNode, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	id, ok := i.byHash[hash]
	if !ok {
		return pow.IndexNode{}, false
	}
	return i.nodes[id].info, true
}

// Hash returns the block hash of the given node
func (i *Index) Hash(id pow.NodeID) ([32]byte, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if id < 0 || int(id) >= len(i.nodes) {
		return [32]byte{}, false
	}
	return i.nodes[id].hash, true
}

// Tip returns the node with the most cumulative work, or false when the
// index is empty
func (i *Index) Tip() (pow.IndexNode, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.best == pow.NoNode {
		return pow.IndexNode{}, false
	}
	return i.nodes[i.best].info, true
}

// ChainWork returns the cumulative work of the chain ending at id
func (i *Index) ChainWork(id pow.NodeID) (*uint256.Int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if id < 0 || int(id) >= len(i.nodes) {
		return nil, false
	}
	return new(uint256.Int).Set(i.nodes[id].chainWork), true
}

// RequiredBits returns the compact target a block building on prevHash must
// carry. The zero hash stands for the parent of genesis on an empty index.
func (i *Index) RequiredBits(prevHash [32]byte) (uint32, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	prev, err := i.resolveParent(prevHash)
	if err != nil {
		return 0, err
	}
	return i.requiredBits(prev, nil)
}

// Accept validates a header against the index and links it in. The header
// must build on a known block (or be the first header of an empty index),
// carry exactly the required bits and, for proof-of-work blocks, satisfy
// its own target.
func (i *Index) Accept(header *pow.BlockHeader) (pow.NodeID, error) {
	return i.AcceptAndStore(header, nil)
}

// StoreFunc persists a validated header at its height
type StoreFunc func(height int64, header *pow.BlockHeader) error

// AcceptAndStore is Accept with a store step between validation and
// linking. The header is only linked once store succeeds, so a store
// failure leaves the index unchanged. A nil store skips the step.
func (i *Index) AcceptAndStore(header *pow.BlockHeader, store StoreFunc) (pow.NodeID, error) {
	hash := header.Hash()
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.byHash[hash]; ok {
		return pow.NoNode, fmt.Errorf("%w: %x", ErrDuplicate, hash)
	}
	prev, err := i.resolveParent(header.PrevBlock)
	if err != nil {
		return pow.NoNode, err
	}
	height := int64(0)
	if prev != pow.NoNode {
		height = i.nodes[prev].info.Height + 1
	}
	required, err := i.requiredBits(prev, header)
	if err != nil {
		return pow.NoNode, err
	}
	if header.Bits != required {
		return pow.NoNode, fmt.Errorf(
			"%w: block %x at height %d has %08x, want %08x",
			ErrBadBits,
			hash,
			height,
			header.Bits,
			required,
		)
	}
	if i.ModeForHeight(height) == pow.ProofOfWork {
		if err := header.ValidateProofOfWork(&i.params); err != nil {
			return pow.NoNode, fmt.Errorf("%w: %w", ErrBadProofOfWork, err)
		}
	}
	if len(i.nodes) >= math.MaxInt32 {
		return pow.NoNode, ErrIndexFull
	}
	if store != nil {
		if err := store(height, header); err != nil {
			return pow.NoNode, err
		}
	}
	return i.link(prev, hash, height, header), nil
}

func (i *Index) resolveParent(prevHash [32]byte) (pow.NodeID, error) {
	if prev, ok := i.byHash[prevHash]; ok {
		return prev, nil
	}
	if len(i.nodes) == 0 && prevHash == [32]byte{} {
		return pow.NoNode, nil
	}
	return pow.NoNode, fmt.Errorf("%w: %x", ErrOrphan, prevHash)
}

func (i *Index) requiredBits(prev pow.NodeID, header *pow.BlockHeader) (uint32, error) {
	height := int64(0)
	if prev != pow.NoNode {
		height = i.nodes[prev].info.Height + 1
	}
	if i.ModeForHeight(height) == pow.ProofOfStake {
		return pow.CheckedNextPoSTargetRequired(arenaView{i}, prev, &i.params)
	}
	return pow.CheckedNextWorkRequired(arenaView{i}, prev, header, &i.params)
}

func (i *Index) link(
	prev pow.NodeID,
	hash [32]byte,
	height int64,
	header *pow.BlockHeader,
) pow.NodeID {
	// #nosec G115 -- checked against math.MaxInt32 by the caller
	id := pow.NodeID(len(i.nodes))
	work := pow.BlockProof(header.Bits)
	if prev != pow.NoNode {
		work.Add(work, i.nodes[prev].chainWork)
	}
	i.nodes = append(i.nodes, node{
		info: pow.IndexNode{
			ID:     id,
			Parent: prev,
			Height: height,
			Time:   int64(header.Time),
			Bits:   header.Bits,
		},
		hash:      hash,
		chainWork: work,
	})
	i.byHash[hash] = id
	// First seen wins on equal work
	if i.best == pow.NoNode || work.Gt(i.nodes[i.best].chainWork) {
		i.best = id
	}
	return id
}
