package tickets

import (
	"strconv"
	"strings"
	"time"

	"mutapa-lotto/database"
	"mutapa-lotto/utils"
	"mutapa-lotto/utils/merkle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// HashTicket computes the canonical leaf hash of a ticket. Verifiers
// recompute it from the stored ticket row, so the input is a fixed
// pipe-separated rendering of the identifying fields.
func HashTicket(t *database.Ticket) common.Hash {
	payload := strings.Join([]string{
		strconv.FormatUint(t.ID, 10),
		strconv.FormatUint(t.DrawID, 10),
		strconv.FormatUint(t.PlayerID, 10),
		t.Numbers,
		strconv.FormatUint(t.Stake, 10),
	}, "|")
	return crypto.Keccak256Hash([]byte(payload))
}

// BuildTree builds the Merkle tree over the given tickets. The input
// must be in ticket ID order, the canonical leaf order of a draw.
func BuildTree(drawTickets []database.Ticket) merkle.Tree {
	hashes := make([]common.Hash, len(drawTickets))
	for i := range drawTickets {
		hashes[i] = HashTicket(&drawTickets[i])
	}
	return merkle.Build(hashes)
}

// BuildLeafRows produces the TicketHash rows pinning each ticket to its
// leaf index, in the same canonical order as BuildTree.
func BuildLeafRows(drawID uint64, drawTickets []database.Ticket) []*database.TicketHash {
	now := time.Now()
	rows := make([]*database.TicketHash, len(drawTickets))
	for i := range drawTickets {
		rows[i] = &database.TicketHash{
			TicketID:  drawTickets[i].ID,
			DrawID:    drawID,
			LeafIndex: i,
			Hash:      HashTicket(&drawTickets[i]).Hex(),
			CreatedAt: now,
		}
	}
	return rows
}

// TreeFromLeafRows rebuilds a draw's tree from stored leaf rows in leaf
// index order.
func TreeFromLeafRows(rows []database.TicketHash) merkle.Tree {
	return merkle.BuildFromHex(utils.Map(rows, func(r database.TicketHash) string { return r.Hash }))
}

// GetMerkleProof returns the inclusion proof of a ticket in the given
// draw tree.
func GetMerkleProof(tree merkle.Tree, t *database.Ticket) ([]merkle.ProofStep, error) {
	proof, err := tree.GetProofForLeaf(HashTicket(t))
	if err != nil {
		return nil, errors.Wrap(err, "tree.GetProofForLeaf")
	}
	return proof, nil
}
