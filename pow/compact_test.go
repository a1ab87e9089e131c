// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow_test

import (
	"testing"

	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
)

func shifted(val uint64, bytes uint) *uint256.Int {
	ret := uint256.NewInt(val)
	return ret.Lsh(ret, 8*bytes)
}

func TestCompactToTarget(t *testing.T) {
	testDefs := []struct {
		bits     uint32
		expected *uint256.Int
		negative bool
		overflow bool
	}{
		{bits: 0x00000000, expected: uint256.NewInt(0)},
		{bits: 0x00123456, expected: uint256.NewInt(0)},
		{bits: 0x01003456, expected: uint256.NewInt(0)},
		{bits: 0x01123456, expected: uint256.NewInt(0x12)},
		{bits: 0x02123456, expected: uint256.NewInt(0x1234)},
		{bits: 0x03123456, expected: uint256.NewInt(0x123456)},
		{bits: 0x04123456, expected: uint256.NewInt(0x12345600)},
		{bits: 0x05009234, expected: uint256.NewInt(0x92340000)},
		{
			// Sign bit set
			bits:     0x04923456,
			expected: uint256.NewInt(0x12345600),
			negative: true,
		},
		{
			// Bitcoin genesis
			bits:     0x1d00ffff,
			expected: shifted(0xffff, 26),
		},
		{bits: 0x20123456, expected: shifted(0x123456, 29)},
		{bits: 0x2100ffff, expected: shifted(0xffff, 30)},
		{bits: 0x21010000, expected: uint256.NewInt(0), overflow: true},
		{bits: 0x220000ff, expected: shifted(0xff, 31)},
		{bits: 0x22000100, expected: uint256.NewInt(0), overflow: true},
		{bits: 0x23000001, expected: uint256.NewInt(0), overflow: true},
		{
			// A zero mantissa never overflows
			bits:     0xff000000,
			expected: uint256.NewInt(0),
		},
	}
	for _, td := range testDefs {
		target, negative, overflow := pow.CompactToTarget(td.bits)
		if negative != td.negative || overflow != td.overflow {
			t.Fatalf(
				"CompactToTarget(0x%08x): got negative=%t overflow=%t, want negative=%t overflow=%t",
				td.bits,
				negative,
				overflow,
				td.negative,
				td.overflow,
			)
		}
		// The magnitude of an overflowed value is meaningless
		if td.overflow {
			continue
		}
		if !target.Eq(td.expected) {
			t.Fatalf(
				"CompactToTarget(0x%08x): got %s, want %s",
				td.bits,
				target.Hex(),
				td.expected.Hex(),
			)
		}
	}
}

func TestTargetToCompact(t *testing.T) {
	testDefs := []struct {
		target   *uint256.Int
		expected uint32
	}{
		{target: uint256.NewInt(0), expected: 0x00000000},
		{target: uint256.NewInt(0x12), expected: 0x01120000},
		{target: uint256.NewInt(0x80), expected: 0x02008000},
		{target: uint256.NewInt(0x1234), expected: 0x02123400},
		{target: uint256.NewInt(0x123456), expected: 0x03123456},
		{target: uint256.NewInt(0x800000), expected: 0x04008000},
		{target: uint256.NewInt(0x12345600), expected: 0x04123456},
		// Low bytes are truncated
		{target: uint256.NewInt(0x12345601), expected: 0x04123456},
		{target: uint256.NewInt(0x123456789a), expected: 0x05123456},
		{target: shifted(0xffff, 26), expected: 0x1d00ffff},
	}
	for _, td := range testDefs {
		bits := pow.TargetToCompact(td.target)
		if bits != td.expected {
			t.Fatalf(
				"TargetToCompact(%s): got 0x%08x, want 0x%08x",
				td.target.Hex(),
				bits,
				td.expected,
			)
		}
	}
}

func TestCompactRoundTrip(t *testing.T) {
	// Mantissas which are exact at every byte offset
	mantissas := []uint64{
		0x01,
		0x7f,
		0x80,
		0xff,
		0x1234,
		0x8000,
		0x123456,
		0x7fffff,
		0x800000,
	}
	for _, mantissa := range mantissas {
		byteLen := uint((uint256.NewInt(mantissa).BitLen() + 7) / 8)
		for offset := uint(0); offset+byteLen <= 32; offset++ {
			target := shifted(mantissa, offset)
			bits := pow.TargetToCompact(target)
			decoded, negative, overflow := pow.CompactToTarget(bits)
			if negative || overflow {
				t.Fatalf(
					"round trip of %s via 0x%08x: unexpected flags negative=%t overflow=%t",
					target.Hex(),
					bits,
					negative,
					overflow,
				)
			}
			if !decoded.Eq(target) {
				t.Fatalf(
					"round trip of %s via 0x%08x: got %s",
					target.Hex(),
					bits,
					decoded.Hex(),
				)
			}
		}
	}
}

func TestCompactTruncationIsStable(t *testing.T) {
	// Encoding an inexact value loses precision once, and only once
	target := uint256.MustFromHex("0x123456789abcdef0123456789abcdef")
	bits := pow.TargetToCompact(target)
	decoded, _, _ := pow.CompactToTarget(bits)
	if decoded.Gt(target) {
		t.Fatalf("truncated value %s exceeds input %s", decoded.Hex(), target.Hex())
	}
	if again := pow.TargetToCompact(decoded); again != bits {
		t.Fatalf("re-encoding: got 0x%08x, want 0x%08x", again, bits)
	}
}
