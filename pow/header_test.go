// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/blinklabs-io/powcore/pow"
	"github.com/holiman/uint256"
)

const (
	testHeaderHex  = "01000000000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f00f15365ffff001d2a000000"
	testHeaderHash = "c2e54938f24eaf8a90ec1752b338aed0658c44d7f1855e1a91b603efac0c3e3d"
)

func testHeader() *pow.BlockHeader {
	h := &pow.BlockHeader{
		Version: 1,
		Time:    1700000000,
		Bits:    0x1d00ffff,
		Nonce:   42,
	}
	for i := range 32 {
		h.PrevBlock[i] = byte(i)
		h.MerkleRoot[i] = byte(32 + i)
	}
	return h
}

func TestBlockHeaderEncode(t *testing.T) {
	encoded := testHeader().Encode()
	if len(encoded) != pow.HeaderSize {
		t.Fatalf("encoded length: got %d, want %d", len(encoded), pow.HeaderSize)
	}
	if hex.EncodeToString(encoded) != testHeaderHex {
		t.Fatalf(
			"encoded header does not match:\n  got:    %x\n  wanted: %s",
			encoded,
			testHeaderHex,
		)
	}
}

func TestBlockHeaderDecode(t *testing.T) {
	headerBytes, err := hex.DecodeString(testHeaderHex)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	header, err := pow.NewBlockHeaderFromBytes(headerBytes)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if *header != *testHeader() {
		t.Fatalf("decoded header does not match:\n  got:    %#v\n  wanted: %#v", header, testHeader())
	}
	if !bytes.Equal(header.Encode(), headerBytes) {
		t.Fatalf("re-encoded header does not match input")
	}
}

func TestBlockHeaderBadLength(t *testing.T) {
	for _, size := range []int{0, pow.HeaderSize - 1, pow.HeaderSize + 1} {
		if _, err := pow.NewBlockHeaderFromBytes(make([]byte, size)); err == nil {
			t.Fatalf("expected error for %d byte header", size)
		}
	}
}

func TestBlockHeaderHash(t *testing.T) {
	hash := testHeader().Hash()
	if hex.EncodeToString(hash[:]) != testHeaderHash {
		t.Fatalf("got hash %x, want %s", hash, testHeaderHash)
	}
}

func TestBlockHeaderValidateProofOfWork(t *testing.T) {
	limit := new(uint256.Int).Not(new(uint256.Int))
	params := &pow.ChainParams{
		Interval:       10,
		TargetSpacing:  60,
		TargetTimespan: 600,
		PowLimit:       limit.Rsh(limit, 1),
	}
	// The known header hash has its top bit set, so it fails any target
	// within this limit
	header := testHeader()
	header.Bits = 0x207fffff
	if err := header.ValidateProofOfWork(params); err == nil {
		t.Fatalf("expected hash %x to fail", header.Hash())
	}
	// Roughly half of all hashes meet this target
	found := false
	for nonce := range uint32(256) {
		header.Nonce = nonce
		hash := header.Hash()
		if hash[0] < 0x7f {
			if err := header.ValidateProofOfWork(params); err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("no nonce found")
	}
	skipParams := *params
	skipParams.SkipProofOfWorkCheck = true
	header.Nonce = 42
	if err := header.ValidateProofOfWork(&skipParams); err != nil {
		t.Fatalf("unexpected error with check skipped: %s", err)
	}
}
