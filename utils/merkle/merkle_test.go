package merkle

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
)

func testLeaves(n int) []common.Hash {
	leaves := make([]common.Hash, n)
	for i := range leaves {
		leaves[i] = crypto.Keccak256Hash([]byte(fmt.Sprintf("leaf %d", i)))
	}
	return leaves
}

func TestEmptyTree(t *testing.T) {
	tree := Build(nil)

	require.Equal(t, crypto.Keccak256Hash([]byte("empty")), tree.Root())
	require.Equal(t, 0, tree.LeafCount())

	_, err := tree.GetProof(0)
	require.ErrorIs(t, err, ErrInvalidIndex)
}

func TestSingleLeaf(t *testing.T) {
	leaves := testLeaves(1)
	tree := Build(leaves)

	require.Equal(t, leaves[0], tree.Root())

	proof, err := tree.GetProof(0)
	require.NoError(t, err)
	require.Empty(t, proof)
	require.True(t, VerifyProof(leaves[0], proof, tree.Root()))
}

func TestOddLeafCount(t *testing.T) {
	leaves := testLeaves(3)
	tree := Build(leaves)

	// the trailing leaf pairs with itself
	expected := HashPair(
		HashPair(leaves[0], leaves[1]),
		HashPair(leaves[2], leaves[2]),
	)
	require.Equal(t, expected, tree.Root())

	levels := tree.Levels()
	require.Len(t, levels, 3)
	require.Len(t, levels[0], 3)
	require.Len(t, levels[1], 2)
	require.Len(t, levels[2], 1)
}

func TestLeafOrderChangesRoot(t *testing.T) {
	leaves := testLeaves(4)
	tree := Build(leaves)

	reversed := []common.Hash{leaves[3], leaves[2], leaves[1], leaves[0]}
	require.NotEqual(t, tree.Root(), Build(reversed).Root())
}

func TestProofsVerify(t *testing.T) {
	for n := 1; n <= 9; n++ {
		leaves := testLeaves(n)
		tree := Build(leaves)

		for i, leaf := range leaves {
			proof, err := tree.GetProof(i)
			require.NoError(t, err)
			require.True(t, VerifyProof(leaf, proof, tree.Root()), "leaf %d of %d", i, n)
		}
	}
}

func TestProofFailsForWrongLeaf(t *testing.T) {
	leaves := testLeaves(5)
	tree := Build(leaves)

	proof, err := tree.GetProof(2)
	require.NoError(t, err)

	other := crypto.Keccak256Hash([]byte("not in the tree"))
	require.False(t, VerifyProof(other, proof, tree.Root()))
}

func TestGetProofForLeaf(t *testing.T) {
	leaves := testLeaves(6)
	tree := Build(leaves)

	proof, err := tree.GetProofForLeaf(leaves[4])
	require.NoError(t, err)
	require.True(t, VerifyProof(leaves[4], proof, tree.Root()))

	_, err = tree.GetProofForLeaf(crypto.Keccak256Hash([]byte("missing")))
	require.ErrorIs(t, err, ErrLeafNotFound)
}

func TestBuildFromHex(t *testing.T) {
	leaves := testLeaves(4)
	hexValues := make([]string, len(leaves))
	for i, leaf := range leaves {
		hexValues[i] = leaf.Hex()
	}

	require.Equal(t, Build(leaves).Root(), BuildFromHex(hexValues).Root())
}
