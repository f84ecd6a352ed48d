package pob

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Position is the side a sibling hash sits on relative to the running node.
type Position string

// Sibling positions
const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// ProofNode is one step of a Merkle proof.
type ProofNode struct {
	Hash     common.Hash `json:"hash"`
	Position Position    `json:"position"`
}

// Proof is a leaf-to-root path for one address.
type Proof struct {
	Address  common.Address `json:"address"`
	Leaf     common.Hash    `json:"leaf"`
	Siblings []ProofNode    `json:"siblings"`
}

// Hashes returns the sibling hashes leaf to root, the form consumed by
// OpenZeppelin MerkleProof.verify.
func (p *Proof) Hashes() []common.Hash {
	out := make([]common.Hash, len(p.Siblings))
	for i, s := range p.Siblings {
		out[i] = s.Hash
	}
	return out
}

// Verify reports whether the proof places its address under root.
func (p *Proof) Verify(root common.Hash) bool {
	return VerifyProof(root, p.Address, p.Hashes())
}

// Commitment is a Keccak-256 Merkle tree over a set of addresses.
//
// Leaves are keccak256(address), sorted ascending. Each parent is
// keccak256 of its two children in ascending byte order. An unpaired last
// node is promoted to the next level unchanged.
type Commitment struct {
	layers [][]common.Hash
}

// NewCommitment builds the tree. The root does not depend on input order.
func NewCommitment(addresses []common.Address) *Commitment {
	leaves := make([]common.Hash, len(addresses))
	for i, addr := range addresses {
		leaves[i] = LeafHash(addr)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})

	layers := [][]common.Hash{leaves}
	for level := leaves; len(level) > 1; {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		layers = append(layers, next)
		level = next
	}
	return &Commitment{layers: layers}
}

// Root returns the tree root, or the zero hash for an empty set.
func (c *Commitment) Root() common.Hash {
	top := c.layers[len(c.layers)-1]
	if len(top) == 0 {
		return common.Hash{}
	}
	return top[0]
}

// Len returns the number of leaves.
func (c *Commitment) Len() int {
	return len(c.layers[0])
}

// Leaves returns a copy of the sorted leaf hashes.
func (c *Commitment) Leaves() []common.Hash {
	out := make([]common.Hash, len(c.layers[0]))
	copy(out, c.layers[0])
	return out
}

// Contains reports whether addr is one of the committed addresses.
func (c *Commitment) Contains(addr common.Address) bool {
	_, ok := c.leafIndex(LeafHash(addr))
	return ok
}

// Proof returns the sibling path for addr, or ErrNotInSet.
func (c *Commitment) Proof(addr common.Address) (*Proof, error) {
	leaf := LeafHash(addr)
	idx, ok := c.leafIndex(leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInSet, addr.Hex())
	}

	proof := &Proof{Address: addr, Leaf: leaf, Siblings: []ProofNode{}}
	for _, layer := range c.layers[:len(c.layers)-1] {
		if idx%2 == 1 {
			proof.Siblings = append(proof.Siblings, ProofNode{Hash: layer[idx-1], Position: PositionLeft})
		} else if idx+1 < len(layer) {
			proof.Siblings = append(proof.Siblings, ProofNode{Hash: layer[idx+1], Position: PositionRight})
		}
		idx /= 2
	}
	return proof, nil
}

func (c *Commitment) leafIndex(leaf common.Hash) (int, bool) {
	leaves := c.layers[0]
	i := sort.Search(len(leaves), func(i int) bool {
		return bytes.Compare(leaves[i][:], leaf[:]) >= 0
	})
	return i, i < len(leaves) && leaves[i] == leaf
}

// VerifyProof recomputes the root from addr and its sibling hashes.
// Sibling positions are not needed because pairs are hashed in sorted order.
func VerifyProof(root common.Hash, addr common.Address, siblings []common.Hash) bool {
	if root == (common.Hash{}) {
		return false
	}
	node := LeafHash(addr)
	for _, s := range siblings {
		node = hashPair(node, s)
	}
	return node == root
}

// LeafHash returns keccak256 of the 20 address bytes.
func LeafHash(addr common.Address) common.Hash {
	return keccak256(addr[:])
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return keccak256(a[:], b[:])
}

func keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}
