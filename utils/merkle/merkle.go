package merkle

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidIndex = errors.New("invalid index")
	ErrLeafNotFound = errors.New("leaf not found")
)

// EmptyRoot is the root of a tree with no leaves.
func EmptyRoot() common.Hash {
	return crypto.Keccak256Hash([]byte("empty"))
}

// Tree is a Merkle tree kept level by level: levels[0] holds the leaf
// hashes in insertion order, every level above pairs adjacent nodes and
// the last level holds the root alone. A trailing node on a level of
// two or more is paired with itself; a single leaf is the root as-is,
// with no hashing round. Verifiers recomputing roots must follow the
// same rules.
type Tree struct {
	levels [][]common.Hash
}

// Build constructs the tree from the given leaf hashes. Leaf order is
// preserved, so the same leaves in a different order yield a different
// root.
func Build(leaves []common.Hash) Tree {
	if len(leaves) == 0 {
		return Tree{}
	}

	levels := make([][]common.Hash, 1, 2)
	levels[0] = append([]common.Hash(nil), leaves...)

	for current := levels[0]; len(current) > 1; current = levels[len(levels)-1] {
		next := make([]common.Hash, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			left := current[i]
			right := left
			if i+1 < len(current) {
				right = current[i+1]
			}
			next = append(next, HashPair(left, right))
		}
		levels = append(levels, next)
	}

	return Tree{levels: levels}
}

// BuildFromHex constructs the tree from hex-encoded leaf hashes.
func BuildFromHex(hexValues []string) Tree {
	leaves := make([]common.Hash, len(hexValues))
	for i, hexValue := range hexValues {
		leaves[i] = common.HexToHash(hexValue)
	}
	return Build(leaves)
}

// HashPair hashes the concatenation of x and y, keeping the order.
func HashPair(x, y common.Hash) common.Hash {
	return crypto.Keccak256Hash(x.Bytes(), y.Bytes())
}

// Root returns the Merkle root, or EmptyRoot for a tree with no leaves.
func (t Tree) Root() common.Hash {
	if len(t.levels) == 0 {
		return EmptyRoot()
	}
	return t.levels[len(t.levels)-1][0]
}

// Levels returns all levels of the tree, leaves first, root last.
// Callers must not modify the returned slices.
func (t Tree) Levels() [][]common.Hash {
	return t.levels
}

// Leaves returns the leaf hashes in insertion order.
func (t Tree) Leaves() []common.Hash {
	if len(t.levels) == 0 {
		return nil
	}
	return t.levels[0]
}

func (t Tree) LeafCount() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0])
}

// ProofStep is one sibling on the path from a leaf to the root. Left
// tells whether the sibling is the left operand when recomputing the
// parent hash.
type ProofStep struct {
	Hash common.Hash `json:"hash"`
	Left bool        `json:"left"`
}

// GetProof returns the Merkle proof for the `i`th leaf.
func (t Tree) GetProof(i int) ([]ProofStep, error) {
	if len(t.levels) == 0 || i < 0 || i >= len(t.levels[0]) {
		return nil, ErrInvalidIndex
	}

	proof := make([]ProofStep, 0, len(t.levels)-1)
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		if i%2 == 0 {
			sibling := i + 1
			if sibling >= len(nodes) {
				// odd trailing node is its own sibling
				sibling = i
			}
			proof = append(proof, ProofStep{Hash: nodes[sibling], Left: false})
		} else {
			proof = append(proof, ProofStep{Hash: nodes[i-1], Left: true})
		}
		i /= 2
	}

	return proof, nil
}

// GetProofForLeaf returns the Merkle proof for the first leaf equal to
// the given hash.
func (t Tree) GetProofForLeaf(leaf common.Hash) ([]ProofStep, error) {
	for i, h := range t.Leaves() {
		if h == leaf {
			return t.GetProof(i)
		}
	}
	return nil, ErrLeafNotFound
}

// VerifyProof verifies a Merkle proof for a given leaf.
func VerifyProof(leaf common.Hash, proof []ProofStep, root common.Hash) bool {
	hash := leaf
	for _, step := range proof {
		if step.Left {
			hash = HashPair(step.Hash, hash)
		} else {
			hash = HashPair(hash, step.Hash)
		}
	}
	return hash == root
}
