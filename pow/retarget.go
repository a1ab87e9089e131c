// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrInsufficientHistory = errors.New("insufficient block history")
	ErrUnknownNode         = errors.New("unknown block index node")
)

// ConsensusMode selects the retarget rule for a block. The mode is
// resolved by the caller per block.
type ConsensusMode uint8

const (
	ProofOfWork ConsensusMode = iota
	ProofOfStake
)

func (m ConsensusMode) String() string {
	switch m {
	case ProofOfWork:
		return "pow"
	case ProofOfStake:
		return "pos"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// NextTargetRequired returns the compact target for the block following
// prev under the given consensus mode
func NextTargetRequired(
	mode ConsensusMode,
	view BlockIndexView,
	prev NodeID,
	header *BlockHeader,
	params *ChainParams,
) uint32 {
	if mode == ProofOfStake {
		return NextPoSTargetRequired(view, prev, params)
	}
	return NextWorkRequired(view, prev, header, params)
}

// NextWorkRequired returns the compact target for the block following prev
// using the windowed proof-of-work retarget. Pass NoNode as prev for the
// genesis block.
//
// The header argument is the candidate block. The current rule does not
// read it; it is part of the signature so that header-dependent rules can
// be added without changing callers.
//
// Once prev is above the bootstrap height the chain must hold at least
// Interval ancestors of prev. A shorter chain is a bug in the caller's
// index construction and causes a panic. Use CheckedNextWorkRequired to
// get an error instead.
func NextWorkRequired(
	view BlockIndexView,
	prev NodeID,
	header *BlockHeader,
	params *ChainParams,
) uint32 {
	bits, err := CheckedNextWorkRequired(view, prev, header, params)
	if err != nil {
		panic(err)
	}
	return bits
}

// CheckedNextWorkRequired is NextWorkRequired returning an error when the
// index lacks the required history
func CheckedNextWorkRequired(
	view BlockIndexView,
	prev NodeID,
	_ *BlockHeader,
	params *ChainParams,
) (uint32, error) {
	if prev == NoNode {
		return params.PowLimitBits(), nil
	}
	last, ok := view.Node(prev)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, prev)
	}
	// Only change once per interval
	if last.Height <= params.Interval {
		return last.Bits, nil
	}
	first, ok := Ancestor(view, prev, params.Interval)
	if !ok {
		return 0, fmt.Errorf(
			"%w: block at height %d has fewer than %d ancestors",
			ErrInsufficientHistory,
			last.Height,
			params.Interval,
		)
	}
	actualTimespan := last.Time - first.Time
	// The bounds are applied in this order, and the lower one rounds down
	minTimespan := params.TargetTimespan * 100 / 130
	maxTimespan := params.TargetTimespan * 2
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	}
	if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}
	target, _, _ := CompactToTarget(last.Bits)
	scaleTarget(target, actualTimespan, params.TargetTimespan)
	if target.Gt(params.PowLimit) {
		target.Set(params.PowLimit)
	}
	return TargetToCompact(target), nil
}

// NextPoSTargetRequired returns the compact target for the block following
// prev using the per-block exponential retarget. The spacing is measured
// between the parent and grandparent of prev, and the previous target is
// taken from the parent of prev.
//
// prev must have a parent and a grandparent; a shorter chain causes a
// panic. Use CheckedNextPoSTargetRequired to get an error instead.
func NextPoSTargetRequired(
	view BlockIndexView,
	prev NodeID,
	params *ChainParams,
) uint32 {
	bits, err := CheckedNextPoSTargetRequired(view, prev, params)
	if err != nil {
		panic(err)
	}
	return bits
}

// CheckedNextPoSTargetRequired is NextPoSTargetRequired returning an error
// when prev lacks a parent or grandparent
func CheckedNextPoSTargetRequired(
	view BlockIndexView,
	prev NodeID,
	params *ChainParams,
) (uint32, error) {
	if _, ok := view.Node(prev); !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, prev)
	}
	parent, ok := Ancestor(view, prev, 1)
	if !ok {
		return 0, fmt.Errorf("%w: block %d has no parent", ErrInsufficientHistory, prev)
	}
	grandparent, ok := Ancestor(view, prev, 2)
	if !ok {
		return 0, fmt.Errorf("%w: block %d has no grandparent", ErrInsufficientHistory, prev)
	}
	actualSpacing := parent.Time - grandparent.Time
	target, _, _ := CompactToTarget(parent.Bits)
	scaleTarget(
		target,
		(params.Interval-1)*params.TargetSpacing+actualSpacing+actualSpacing,
		(params.Interval+1)*params.TargetSpacing,
	)
	if target.Gt(params.PowLimit) {
		target.Set(params.PowLimit)
	}
	return TargetToCompact(target), nil
}

// scaleTarget sets target to target*mul/div. The multiplier is a 32-bit
// scalar: mul is truncated to its low 32 bits, so a negative multiplier
// becomes 2^32 plus its value. The multiply happens first and wraps modulo
// 2^256.
func scaleTarget(target *uint256.Int, mul int64, div int64) {
	// #nosec G115 -- truncation is part of the consensus rule
	target.Mul(target, new(uint256.Int).SetUint64(uint64(uint32(mul))))
	// #nosec G115 -- div is positive for validated params
	target.Div(target, new(uint256.Int).SetUint64(uint64(div)))
}
