//go:build !integration
// +build !integration

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func chainWithDraws(t *testing.T, drawCount int) (*Ledger, *testChainDB) {
	db := newTestChainDB()
	l := newTestLedger(db)
	require.NoError(t, l.EnsureGenesis(context.Background()))

	for i := 1; i <= drawCount; i++ {
		drawID := uint64(i)
		_, _, err := l.RecordDrawResult(
			context.Background(),
			drawFixture(drawID),
			[]int{1, 2, 3, 4, 5},
			"0x01",
			ticketsFixture(drawID, 3),
		)
		require.NoError(t, err)
	}
	return l, db
}

func TestVerifyDrawIntegrityValid(t *testing.T) {
	l, _ := chainWithDraws(t, 2)

	for drawID := uint64(1); drawID <= 2; drawID++ {
		report, err := l.VerifyDrawIntegrity(drawID)
		require.NoError(t, err)
		require.True(t, report.Valid())
		require.True(t, report.TransactionHashValid)
		require.True(t, report.BlockHashValid)
		require.True(t, report.MerkleRootValid)
		require.True(t, report.ChainLinkValid)
		require.Empty(t, report.Details)
	}
}

func TestVerifyDrawIntegrityUnknownDraw(t *testing.T) {
	l, _ := chainWithDraws(t, 1)

	_, err := l.VerifyDrawIntegrity(99)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestVerifyDrawIntegrityTamperedNumbers(t *testing.T) {
	l, db := chainWithDraws(t, 1)

	db.txs[0].WinningNumbers = "6,7,8,9,10"

	report, err := l.VerifyDrawIntegrity(1)
	require.NoError(t, err)
	require.False(t, report.Valid())
	require.False(t, report.TransactionHashValid)
	// the stored hash still matches the block's Merkle root
	require.True(t, report.MerkleRootValid)
	require.NotEmpty(t, report.Details)
}

func TestVerifyDrawIntegrityTamperedBlock(t *testing.T) {
	l, db := chainWithDraws(t, 1)

	db.blocks[1].Nonce++

	report, err := l.VerifyDrawIntegrity(1)
	require.NoError(t, err)
	require.False(t, report.Valid())
	require.False(t, report.BlockHashValid)
	require.True(t, report.TransactionHashValid)
}

func TestVerifyDrawIntegrityTamperedTransactionHash(t *testing.T) {
	l, db := chainWithDraws(t, 1)

	db.txs[0].Hash = "0x00000000000000000000000000000000000000000000000000000000000000ff"

	report, err := l.VerifyDrawIntegrity(1)
	require.NoError(t, err)
	require.False(t, report.TransactionHashValid)
	require.False(t, report.MerkleRootValid)
}

func TestVerifyChainValid(t *testing.T) {
	l, _ := chainWithDraws(t, 3)

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)
	require.True(t, report.Valid)
	require.Empty(t, report.Violation)
	require.Equal(t, int64(4), report.BlocksChecked)
	require.Equal(t, int64(3), report.TransactionsChecked)
}

func TestVerifyChainEmptyLedger(t *testing.T) {
	l := newTestLedger(newTestChainDB())

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)
	require.False(t, report.Valid)
}

func TestVerifyChainDetectsTamperedBlock(t *testing.T) {
	l, db := chainWithDraws(t, 2)

	db.blocks[1].Hash = "0x0000000000000000000000000000000000000000000000000000000000000001"

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)
	require.False(t, report.Valid)
	require.Contains(t, report.Violation, "block 1 hash mismatch")
}

func TestVerifyChainDetectsBrokenLink(t *testing.T) {
	l, db := chainWithDraws(t, 2)

	// re-mine block 1 so its own hash is valid but block 2 no longer links
	block := db.blocks[1]
	block.Timestamp = block.Timestamp.Add(1000000000)
	require.NoError(t, mineBlock(context.Background(), &block))
	db.blocks[1] = block

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)
	require.False(t, report.Valid)
	require.Contains(t, report.Violation, "does not link")
}

func TestVerifyChainDetectsTamperedTransaction(t *testing.T) {
	l, db := chainWithDraws(t, 2)

	db.txs[1].TotalStake += 1

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)
	require.False(t, report.Valid)
	require.Contains(t, report.Violation, "transaction hash mismatch")
}
