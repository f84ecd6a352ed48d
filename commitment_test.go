package pob

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddresses(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BytesToAddress(crypto.Keccak256([]byte(fmt.Sprintf("addr-%d", i))))
	}
	return out
}

// sortedPair is an independent rendition of the pair hash using go-ethereum's
// Keccak256 rather than the package hasher.
func sortedPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

func sortedLeaves(addrs []common.Address) []common.Hash {
	leaves := make([]common.Hash, len(addrs))
	for i, a := range addrs {
		leaves[i] = crypto.Keccak256Hash(a[:])
	}
	for i := 1; i < len(leaves); i++ {
		for j := i; j > 0 && bytes.Compare(leaves[j-1][:], leaves[j][:]) > 0; j-- {
			leaves[j-1], leaves[j] = leaves[j], leaves[j-1]
		}
	}
	return leaves
}

func TestCommitment_Empty(t *testing.T) {
	c := NewCommitment(nil)

	assert.Equal(t, common.Hash{}, c.Root())
	assert.Equal(t, 0, c.Len())

	_, err := c.Proof(testAddresses(1)[0])
	assert.True(t, errors.Is(err, ErrNotInSet))
	assert.False(t, VerifyProof(c.Root(), testAddresses(1)[0], nil))
}

func TestCommitment_SingleLeaf(t *testing.T) {
	addr := testAddresses(1)[0]
	c := NewCommitment([]common.Address{addr})

	assert.Equal(t, crypto.Keccak256Hash(addr[:]), c.Root())

	proof, err := c.Proof(addr)
	require.NoError(t, err)
	assert.Empty(t, proof.Siblings)
	assert.True(t, proof.Verify(c.Root()))
}

func TestCommitment_KnownShapes(t *testing.T) {
	t.Run("two leaves", func(t *testing.T) {
		addrs := testAddresses(2)
		l := sortedLeaves(addrs)
		assert.Equal(t, sortedPair(l[0], l[1]), NewCommitment(addrs).Root())
	})

	t.Run("three leaves promotes the odd node", func(t *testing.T) {
		addrs := testAddresses(3)
		l := sortedLeaves(addrs)
		want := sortedPair(sortedPair(l[0], l[1]), l[2])
		assert.Equal(t, want, NewCommitment(addrs).Root())
	})

	t.Run("five leaves promotes across two levels", func(t *testing.T) {
		addrs := testAddresses(5)
		l := sortedLeaves(addrs)
		left := sortedPair(sortedPair(l[0], l[1]), sortedPair(l[2], l[3]))
		want := sortedPair(left, l[4])
		assert.Equal(t, want, NewCommitment(addrs).Root())
	})
}

func TestCommitment_ProofRoundTrip(t *testing.T) {
	for n := 1; n <= 17; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			addrs := testAddresses(n)
			c := NewCommitment(addrs)
			root := c.Root()

			for _, addr := range addrs {
				assert.True(t, c.Contains(addr))
				proof, err := c.Proof(addr)
				require.NoError(t, err)
				assert.Equal(t, LeafHash(addr), proof.Leaf)
				assert.True(t, VerifyProof(root, addr, proof.Hashes()), "proof for %s", addr.Hex())
			}
		})
	}
}

func TestCommitment_NonMember(t *testing.T) {
	addrs := testAddresses(8)
	c := NewCommitment(addrs)
	outsider := common.HexToAddress("0x000000000000000000000000000000000000dEaD")

	assert.False(t, c.Contains(outsider))

	_, err := c.Proof(outsider)
	assert.True(t, errors.Is(err, ErrNotInSet))

	// A member's path must not verify for someone else.
	proof, err := c.Proof(addrs[3])
	require.NoError(t, err)
	assert.False(t, VerifyProof(c.Root(), outsider, proof.Hashes()))
}

func TestCommitment_TamperedProof(t *testing.T) {
	addrs := testAddresses(6)
	c := NewCommitment(addrs)

	proof, err := c.Proof(addrs[0])
	require.NoError(t, err)
	require.NotEmpty(t, proof.Siblings)

	hashes := proof.Hashes()
	hashes[0][0] ^= 0xff
	assert.False(t, VerifyProof(c.Root(), addrs[0], hashes))

	assert.False(t, VerifyProof(c.Root(), addrs[0], proof.Hashes()[1:]))
}

func TestCommitment_OrderIndependent(t *testing.T) {
	addrs := testAddresses(13)
	want := NewCommitment(addrs).Root()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]common.Address(nil), addrs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, NewCommitment(shuffled).Root())
	}
}

func TestCommitment_LeavesSorted(t *testing.T) {
	c := NewCommitment(testAddresses(9))
	leaves := c.Leaves()
	require.Len(t, leaves, 9)
	for i := 1; i < len(leaves); i++ {
		assert.True(t, bytes.Compare(leaves[i-1][:], leaves[i][:]) < 0)
	}

	// Leaves returns a copy.
	leaves[0] = common.Hash{}
	assert.NotEqual(t, common.Hash{}, c.Leaves()[0])
}

func TestCommitment_SiblingPositions(t *testing.T) {
	c := NewCommitment(testAddresses(4))
	leaves := c.Leaves()

	first, err := c.Proof(addressForLeaf(t, leaves[0], testAddresses(4)))
	require.NoError(t, err)
	require.Len(t, first.Siblings, 2)
	assert.Equal(t, PositionRight, first.Siblings[0].Position)
	assert.Equal(t, leaves[1], first.Siblings[0].Hash)

	last, err := c.Proof(addressForLeaf(t, leaves[3], testAddresses(4)))
	require.NoError(t, err)
	require.Len(t, last.Siblings, 2)
	assert.Equal(t, PositionLeft, last.Siblings[0].Position)
	assert.Equal(t, leaves[2], last.Siblings[0].Hash)
}

func addressForLeaf(t *testing.T, leaf common.Hash, addrs []common.Address) common.Address {
	t.Helper()
	for _, a := range addrs {
		if LeafHash(a) == leaf {
			return a
		}
	}
	t.Fatalf("no address for leaf %s", leaf.Hex())
	return common.Address{}
}
