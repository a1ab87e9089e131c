// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// HeaderSize is the serialized size of a BlockHeader
const HeaderSize = 80

type BlockHeader struct {
	Version    uint32
	PrevBlock  [32]byte
	MerkleRoot [32]byte
	Time       uint32
	Bits       uint32
	Nonce      uint32
}

func NewBlockHeaderFromBytes(data []byte) (*BlockHeader, error) {
	if len(data) != HeaderSize {
		return nil, fmt.Errorf(
			"invalid header length: got %d, want %d",
			len(data),
			HeaderSize,
		)
	}
	h := &BlockHeader{}
	if err := h.Decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *BlockHeader) Decode(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, h); err != nil {
		return err
	}
	return nil
}

func (h *BlockHeader) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	// Writes to a bytes.Buffer cannot fail
	_ = binary.Write(buf, binary.LittleEndian, h)
	return buf.Bytes()
}

// Hash returns the BLAKE2b-256 digest of the encoded header
func (h *BlockHeader) Hash() [32]byte {
	return blake2b.Sum256(h.Encode())
}

// ValidateProofOfWork checks that the header hash satisfies the target
// claimed in its own Bits field
func (h *BlockHeader) ValidateProofOfWork(params *ChainParams) error {
	hash := h.Hash()
	if !CheckProofOfWork(HashToInt(hash), h.Bits, params) {
		target, _, _ := CompactToTarget(h.Bits)
		return fmt.Errorf(
			"block PoW hash %x does not meet target %s (bits %08x)",
			hash,
			target.Hex(),
			h.Bits,
		)
	}
	return nil
}
