// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

// NodeID identifies a node within a block index arena
type NodeID int32

// NoNode is the NodeID of a missing node, such as the parent of genesis
const NoNode NodeID = -1

// IndexNode is the consensus metadata of one block in the index
type IndexNode struct {
	ID     NodeID
	Parent NodeID
	Height int64
	Time   int64
	Bits   uint32
}

// BlockIndexView is a read-only, ancestor-linked view of the block index.
// Following Parent from a node at height h must reach exactly h ancestors
// before NoNode. The view must not be mutated while a caller walks it.
type BlockIndexView interface {
	Node(id NodeID) (IndexNode, bool)
}

// Ancestor walks up to steps parent links from id. It returns false if the
// walk runs off the start of the chain.
func Ancestor(view BlockIndexView, id NodeID, steps int64) (IndexNode, bool) {
	node, ok := view.Node(id)
	if !ok {
		return IndexNode{}, false
	}
	for range steps {
		if node.Parent == NoNode {
			return IndexNode{}, false
		}
		node, ok = view.Node(node.Parent)
		if !ok {
			return IndexNode{}, false
		}
	}
	return node, true
}
