//go:build !integration
// +build !integration

package tickets

import (
	"testing"

	"mutapa-lotto/database"
	"mutapa-lotto/utils/merkle"

	"github.com/stretchr/testify/require"
)

func testTickets(drawID uint64, n int) []database.Ticket {
	tickets := make([]database.Ticket, n)
	for i := range tickets {
		tickets[i] = database.Ticket{
			BaseEntity: database.BaseEntity{ID: uint64(i + 1)},
			DrawID:     drawID,
			PlayerID:   uint64(100 + i),
			Numbers:    database.EncodeNumbers([]int{1 + i, 10 + i, 20 + i, 30 + i, 40 + i}),
			Stake:      500,
		}
	}
	return tickets
}

func TestHashTicketIsStable(t *testing.T) {
	tickets := testTickets(1, 2)

	require.Equal(t, HashTicket(&tickets[0]), HashTicket(&tickets[0]))
	require.NotEqual(t, HashTicket(&tickets[0]), HashTicket(&tickets[1]))

	// any field change must change the hash
	changed := tickets[0]
	changed.Stake++
	require.NotEqual(t, HashTicket(&tickets[0]), HashTicket(&changed))
}

func TestAllProofsVerify(t *testing.T) {
	tickets := testTickets(3, 7)
	tree := BuildTree(tickets)

	for i := range tickets {
		proof, err := GetMerkleProof(tree, &tickets[i])
		require.NoError(t, err)
		require.True(t, merkle.VerifyProof(HashTicket(&tickets[i]), proof, tree.Root()))
	}
}

func TestForeignTicketHasNoProof(t *testing.T) {
	tree := BuildTree(testTickets(3, 4))

	foreign := database.Ticket{
		BaseEntity: database.BaseEntity{ID: 999},
		DrawID:     3,
		PlayerID:   1,
		Numbers:    "1,2,3,4,5",
		Stake:      500,
	}
	_, err := GetMerkleProof(tree, &foreign)
	require.ErrorIs(t, err, merkle.ErrLeafNotFound)
}

func TestLeafRowsMatchTree(t *testing.T) {
	tickets := testTickets(5, 6)
	tree := BuildTree(tickets)
	rows := BuildLeafRows(5, tickets)

	require.Len(t, rows, len(tickets))
	for i, row := range rows {
		require.Equal(t, tickets[i].ID, row.TicketID)
		require.Equal(t, i, row.LeafIndex)
		require.Equal(t, HashTicket(&tickets[i]).Hex(), row.Hash)
	}

	stored := make([]database.TicketHash, len(rows))
	for i, row := range rows {
		stored[i] = *row
	}
	require.Equal(t, tree.Root(), TreeFromLeafRows(stored).Root())
}

func TestEmptyDrawTree(t *testing.T) {
	tree := BuildTree(nil)
	require.Equal(t, merkle.EmptyRoot(), tree.Root())
	require.Empty(t, BuildLeafRows(1, nil))
}
