// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"github.com/holiman/uint256"
)

const (
	compactSignBit      = 0x00800000
	compactMantissaMask = 0x007fffff
)

// CompactToTarget converts a compact (nBits) value to a 256-bit target.
// The first byte is the exponent (the byte length of the encoded number),
// the next 3 bytes are the mantissa, with bit 23 reserved as a sign bit.
// Target = mantissa * 256^(exp-3).
//
// Decoding never fails. The negative flag reports the sign bit and the
// overflow flag reports a mantissa shifted past 256 bits. Callers must
// treat a flagged or zero target as invalid.
func CompactToTarget(compact uint32) (*uint256.Int, bool, bool) {
	exp := compact >> 24
	mantissa := compact & compactMantissaMask
	target := new(uint256.Int)
	if exp <= 3 {
		mantissa >>= 8 * (3 - exp)
		target.SetUint64(uint64(mantissa))
	} else if shift := 8 * (exp - 3); shift < 256 {
		target.SetUint64(uint64(mantissa))
		target.Lsh(target, uint(shift))
	}
	negative := compact&compactSignBit != 0
	overflow := mantissa != 0 &&
		(exp > 34 ||
			(mantissa > 0xff && exp > 33) ||
			(mantissa > 0xffff && exp > 32))
	return target, negative, overflow
}

// TargetToCompact converts a 256-bit target to its canonical compact
// representation. Only the 23 most significant bits survive, so targets
// that are not a multiple of 256^(exp-3) are truncated toward zero.
func TargetToCompact(target *uint256.Int) uint32 {
	size := uint32((target.BitLen() + 7) / 8)
	var mantissa uint32
	if size <= 3 {
		// #nosec G115 -- at most 24 significant bits here
		mantissa = uint32(target.Uint64()) << (8 * (3 - size))
	} else {
		tmp := new(uint256.Int).Rsh(target, uint(8*(size-3)))
		// #nosec G115 -- shifted down to 24 significant bits
		mantissa = uint32(tmp.Uint64())
	}
	// The mantissa would collide with the sign bit, so drop a byte of
	// precision and bump the exponent
	if mantissa&compactSignBit != 0 {
		mantissa >>= 8
		size++
	}
	return size<<24 | mantissa
}

// ValidTarget decodes a compact value and reports whether it is usable
// as a proof target: not negative, not overflowed and not zero.
func ValidTarget(compact uint32) (*uint256.Int, bool) {
	target, negative, overflow := CompactToTarget(compact)
	if negative || overflow || target.IsZero() {
		return target, false
	}
	return target, true
}
