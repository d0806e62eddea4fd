//go:build !integration
// +build !integration

package ledger

import (
	"context"
	"testing"

	"mutapa-lotto/config"
	"mutapa-lotto/database"
	"mutapa-lotto/tickets"
	"mutapa-lotto/utils/merkle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testDifficulty = 2

type testChainDB struct {
	blocks   []database.Block
	txs      []database.DrawTransaction
	leafRows []database.TicketHash
	nextTxID uint64
}

func newTestChainDB() *testChainDB {
	return &testChainDB{nextTxID: 1}
}

func (db *testChainDB) GetLatestBlock() (*database.Block, error) {
	if len(db.blocks) == 0 {
		return nil, nil
	}
	block := db.blocks[len(db.blocks)-1]
	return &block, nil
}

func (db *testChainDB) GetBlockByHeight(height uint64) (*database.Block, error) {
	for i := range db.blocks {
		if db.blocks[i].Height == height {
			block := db.blocks[i]
			return &block, nil
		}
	}
	return nil, nil
}

func (db *testChainDB) GetBlocksFrom(fromHeight uint64, limit int) ([]database.Block, error) {
	var result []database.Block
	for _, block := range db.blocks {
		if block.Height >= fromHeight && len(result) < limit {
			result = append(result, block)
		}
	}
	return result, nil
}

func (db *testChainDB) CountBlocks() (int64, error) {
	return int64(len(db.blocks)), nil
}

func (db *testChainDB) GetLatestTransaction() (*database.DrawTransaction, error) {
	if len(db.txs) == 0 {
		return nil, nil
	}
	tx := db.txs[len(db.txs)-1]
	return &tx, nil
}

func (db *testChainDB) GetTransaction(drawID uint64) (*database.DrawTransaction, error) {
	for i := range db.txs {
		if db.txs[i].DrawID == drawID {
			tx := db.txs[i]
			return &tx, nil
		}
	}
	return nil, nil
}

func (db *testChainDB) GetTransactionBefore(id uint64) (*database.DrawTransaction, error) {
	var found *database.DrawTransaction
	for i := range db.txs {
		if db.txs[i].ID < id && (found == nil || db.txs[i].ID > found.ID) {
			found = &db.txs[i]
		}
	}
	if found == nil {
		return nil, nil
	}
	tx := *found
	return &tx, nil
}

func (db *testChainDB) GetBlockTransactions(height uint64) ([]database.DrawTransaction, error) {
	var result []database.DrawTransaction
	for _, tx := range db.txs {
		if tx.BlockHeight == height {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (db *testChainDB) CountTransactions() (int64, error) {
	return int64(len(db.txs)), nil
}

func (db *testChainDB) CommitBlock(
	block *database.Block,
	tx *database.DrawTransaction,
	leafRows []*database.TicketHash,
) error {
	db.blocks = append(db.blocks, *block)
	if tx != nil {
		tx.ID = db.nextTxID
		db.nextTxID++
		db.txs = append(db.txs, *tx)
	}
	for _, row := range leafRows {
		db.leafRows = append(db.leafRows, *row)
	}
	return nil
}

func newTestLedger(db chainDB) *Ledger {
	return New(&config.LedgerConfig{Difficulty: testDifficulty}, db)
}

func drawFixture(id uint64) *database.Draw {
	return &database.Draw{
		BaseEntity:    database.BaseEntity{ID: id},
		DrawType:      database.DrawTypeDaily,
		Status:        database.DrawStatusExecuting,
		JackpotAmount: 100_000_00,
	}
}

func ticketsFixture(drawID uint64, n int) []database.Ticket {
	result := make([]database.Ticket, n)
	for i := range result {
		result[i] = database.Ticket{
			BaseEntity: database.BaseEntity{ID: uint64(i + 1)},
			DrawID:     drawID,
			PlayerID:   uint64(i + 1),
			Numbers:    "1,2,3,4,5",
			Stake:      250,
		}
	}
	return result
}

func TestEnsureGenesis(t *testing.T) {
	db := newTestChainDB()
	l := newTestLedger(db)

	require.NoError(t, l.EnsureGenesis(context.Background()))
	require.Len(t, db.blocks, 1)

	genesis := db.blocks[0]
	require.Equal(t, uint64(0), genesis.Height)
	require.Equal(t, NoPreviousHash, genesis.PreviousHash)
	require.Equal(t, merkle.EmptyRoot().Hex(), genesis.MerkleRoot)
	require.Equal(t, HashBlock(&genesis, genesis.Nonce).Hex(), genesis.Hash)
	require.True(t, MeetsDifficulty(common.HexToHash(genesis.Hash), testDifficulty))

	// second call must not mine another block
	require.NoError(t, l.EnsureGenesis(context.Background()))
	require.Len(t, db.blocks, 1)
}

func TestRecordDrawResult(t *testing.T) {
	db := newTestChainDB()
	l := newTestLedger(db)
	require.NoError(t, l.EnsureGenesis(context.Background()))

	draw := drawFixture(1)
	numbers := []int{3, 11, 19, 27, 41}
	drawTickets := ticketsFixture(1, 4)

	block, tx, err := l.RecordDrawResult(context.Background(), draw, numbers, "0xabcd", drawTickets)
	require.NoError(t, err)

	require.Equal(t, uint64(1), block.Height)
	require.Equal(t, db.blocks[0].Hash, block.PreviousHash)
	require.True(t, MeetsDifficulty(common.HexToHash(block.Hash), testDifficulty))
	require.Equal(t, HashBlock(block, block.Nonce).Hex(), block.Hash)

	require.Equal(t, uint64(1), tx.DrawID)
	require.Equal(t, "3,11,19,27,41", tx.WinningNumbers)
	require.Equal(t, NoPreviousHash, tx.PreviousHash)
	require.Equal(t, 4, tx.ParticipantCount)
	require.Equal(t, uint64(1000), tx.TotalStake)
	require.Equal(t, tickets.BuildTree(drawTickets).Root().Hex(), tx.TicketsRoot)
	require.Equal(t, HashTransaction(tx).Hex(), tx.Hash)

	// single transaction per block: the Merkle root is its hash
	require.Equal(t, common.HexToHash(tx.Hash).Hex(), block.MerkleRoot)

	require.Len(t, db.leafRows, 4)
	for i, row := range db.leafRows {
		require.Equal(t, i, row.LeafIndex)
		require.Equal(t, uint64(1), row.DrawID)
	}
}

func TestRecordSecondDrawLinksTransactions(t *testing.T) {
	db := newTestChainDB()
	l := newTestLedger(db)
	require.NoError(t, l.EnsureGenesis(context.Background()))

	_, firstTx, err := l.RecordDrawResult(context.Background(), drawFixture(1), []int{1, 2, 3, 4, 5}, "0x01", nil)
	require.NoError(t, err)

	secondBlock, secondTx, err := l.RecordDrawResult(context.Background(), drawFixture(2), []int{6, 7, 8, 9, 10}, "0x02", nil)
	require.NoError(t, err)

	require.Equal(t, uint64(2), secondBlock.Height)
	require.Equal(t, db.blocks[1].Hash, secondBlock.PreviousHash)
	require.Equal(t, firstTx.Hash, secondTx.PreviousHash)
}

func TestRecordWithoutGenesisFails(t *testing.T) {
	l := newTestLedger(newTestChainDB())

	_, _, err := l.RecordDrawResult(context.Background(), drawFixture(1), []int{1, 2, 3, 4, 5}, "0x01", nil)
	require.Error(t, err)
}

func TestMiningAborted(t *testing.T) {
	db := newTestChainDB()
	l := newTestLedger(db)
	require.NoError(t, l.EnsureGenesis(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := l.RecordDrawResult(ctx, drawFixture(1), []int{1, 2, 3, 4, 5}, "0x01", ticketsFixture(1, 2))
	require.ErrorIs(t, err, ErrMiningAborted)

	// nothing may be persisted for the aborted draw
	require.Len(t, db.blocks, 1)
	require.Empty(t, db.txs)
	require.Empty(t, db.leafRows)
}

func TestGetInfo(t *testing.T) {
	db := newTestChainDB()
	l := newTestLedger(db)
	require.NoError(t, l.EnsureGenesis(context.Background()))

	_, _, err := l.RecordDrawResult(context.Background(), drawFixture(1), []int{1, 2, 3, 4, 5}, "0x01", nil)
	require.NoError(t, err)

	info, err := l.GetInfo()
	require.NoError(t, err)
	require.Equal(t, uint64(1), info.Height)
	require.Equal(t, db.blocks[1].Hash, info.LatestHash)
	require.Equal(t, int64(2), info.TotalBlocks)
	require.Equal(t, int64(1), info.TotalTransactions)
	require.Equal(t, testDifficulty, info.Difficulty)
}
