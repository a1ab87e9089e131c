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

// ChainParams holds the per-network values consumed by the retarget and
// proof functions. It is passed explicitly to every call.
type ChainParams struct {
	// Interval is the number of blocks between proof-of-work retargets
	Interval int64
	// TargetSpacing is the desired number of seconds between blocks
	TargetSpacing int64
	// TargetTimespan is the desired number of seconds for one interval
	TargetTimespan int64
	// PowLimit is the easiest allowed target
	PowLimit *uint256.Int
	// SkipProofOfWorkCheck makes CheckProofOfWork accept any block
	SkipProofOfWorkCheck bool
}

func (p *ChainParams) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("invalid interval: %d", p.Interval)
	}
	if p.TargetSpacing <= 0 {
		return fmt.Errorf("invalid target spacing: %d", p.TargetSpacing)
	}
	if p.TargetTimespan <= 0 {
		return fmt.Errorf("invalid target timespan: %d", p.TargetTimespan)
	}
	if p.PowLimit == nil || p.PowLimit.IsZero() {
		return errors.New("proof-of-work limit must be non-zero")
	}
	return nil
}

// PowLimitBits returns the proof-of-work limit in compact form
func (p *ChainParams) PowLimitBits() uint32 {
	return TargetToCompact(p.PowLimit)
}

// limitShift returns ~uint256(0) >> n
func limitShift(n uint) *uint256.Int {
	ret := new(uint256.Int).Not(new(uint256.Int))
	return ret.Rsh(ret, n)
}
