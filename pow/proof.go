// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"github.com/holiman/uint256"
)

// HashToInt interprets a block hash as a big-endian 256-bit number
func HashToInt(hash [32]byte) *uint256.Int {
	return new(uint256.Int).SetBytes32(hash[:])
}

// CheckProofOfWork reports whether hash satisfies the target encoded in
// bits. The target must decode cleanly and lie within (0, PowLimit]. A hash
// equal to the target passes.
func CheckProofOfWork(hash *uint256.Int, bits uint32, params *ChainParams) bool {
	if params.SkipProofOfWorkCheck {
		return true
	}
	target, ok := ValidTarget(bits)
	if !ok || target.Gt(params.PowLimit) {
		return false
	}
	return !hash.Gt(target)
}

// BlockProof returns the expected number of hashes needed to find a block
// meeting the target encoded in bits, 2^256 / (target+1). Invalid targets
// have zero work.
func BlockProof(bits uint32) *uint256.Int {
	target, ok := ValidTarget(bits)
	if !ok {
		return new(uint256.Int)
	}
	// 2^256 does not fit, but 2^256/(t+1) == (2^256-t-1)/(t+1) + 1 and
	// 2^256-t-1 is ^t
	denominator := new(uint256.Int).AddUint64(target, 1)
	work := new(uint256.Int).Not(target)
	work.Div(work, denominator)
	return work.AddUint64(work, 1)
}
