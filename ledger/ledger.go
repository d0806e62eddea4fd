package ledger

import (
	"context"
	"time"

	"mutapa-lotto/config"
	"mutapa-lotto/database"
	"mutapa-lotto/logger"
	"mutapa-lotto/tickets"
	"mutapa-lotto/utils/merkle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// StateName is the bookkeeping row the ledger maintains in the state
// table. NextDBIndex holds the next block height to append.
const StateName = "ledger"

// Hash value standing in for a predecessor that does not exist: the
// previous block hash of the genesis block and the previous transaction
// hash of the first draw transaction.
const NoPreviousHash = "0"

// ErrChainIntegrityViolation is returned when a commit finds the chain
// tip different from the one the block was built on, or when chain
// verification finds a broken invariant. An append failing with it must
// be retried from a fresh tip after investigation, never forced.
var ErrChainIntegrityViolation = errors.New("chain integrity violation")

// Interactions of the ledger with the database. The actual logic is in
// ledger.go, mining.go and verify.go, which are unit-tested.
type chainDB interface {
	// GetLatestBlock returns the block with the greatest height or nil
	// for an empty ledger.
	GetLatestBlock() (*database.Block, error)
	GetBlockByHeight(height uint64) (*database.Block, error)
	GetBlocksFrom(fromHeight uint64, limit int) ([]database.Block, error)
	CountBlocks() (int64, error)
	// GetLatestTransaction returns the most recently committed draw
	// transaction or nil if there is none.
	GetLatestTransaction() (*database.DrawTransaction, error)
	GetTransaction(drawID uint64) (*database.DrawTransaction, error)
	// GetTransactionBefore returns the transaction committed immediately
	// before the one with the given ID, or nil if it was the first.
	GetTransactionBefore(id uint64) (*database.DrawTransaction, error)
	GetBlockTransactions(height uint64) ([]database.DrawTransaction, error)
	CountTransactions() (int64, error)
	// CommitBlock atomically persists a mined block, its transaction and
	// the ticket leaf rows, and advances the ledger state. It fails with
	// ErrChainIntegrityViolation when the chain tip no longer matches
	// the block's previous hash.
	CommitBlock(block *database.Block, tx *database.DrawTransaction, leafRows []*database.TicketHash) error
}

// Ledger is the append-only chain of draw settlement blocks. All writes
// go through a single scheduler instance; reads are safe from anywhere.
type Ledger struct {
	db         chainDB
	difficulty int
}

func New(cfg *config.LedgerConfig, db chainDB) *Ledger {
	return &Ledger{
		db:         db,
		difficulty: cfg.Difficulty,
	}
}

// EnsureGenesis mines and commits the genesis block if the ledger is
// empty. Safe to call on every startup.
func (l *Ledger) EnsureGenesis(ctx context.Context) error {
	latest, err := l.db.GetLatestBlock()
	if err != nil {
		return errors.Wrap(err, "chainDB.GetLatestBlock")
	}
	if latest != nil {
		return nil
	}

	block := &database.Block{
		Height:       0,
		Timestamp:    time.Now(),
		PreviousHash: NoPreviousHash,
		MerkleRoot:   merkle.EmptyRoot().Hex(),
		Difficulty:   l.difficulty,
	}
	if err := mineBlock(ctx, block); err != nil {
		return err
	}
	if err := l.db.CommitBlock(block, nil, nil); err != nil {
		return errors.Wrap(err, "chainDB.CommitBlock")
	}

	logger.Info("Mined genesis block %s", block.Hash)
	return nil
}

// RecordDrawResult settles an executed draw on the ledger: it builds
// the draw transaction, mines a block containing it and commits both
// together with the ticket leaf rows in one database transaction.
// Cancelling the context aborts mining with ErrMiningAborted and leaves
// the database untouched.
func (l *Ledger) RecordDrawResult(
	ctx context.Context,
	draw *database.Draw,
	numbers []int,
	vrfProof string,
	drawTickets []database.Ticket,
) (*database.Block, *database.DrawTransaction, error) {
	latest, err := l.db.GetLatestBlock()
	if err != nil {
		return nil, nil, errors.Wrap(err, "chainDB.GetLatestBlock")
	}
	if latest == nil {
		return nil, nil, errors.New("ledger has no genesis block")
	}

	previousTxHash := NoPreviousHash
	latestTx, err := l.db.GetLatestTransaction()
	if err != nil {
		return nil, nil, errors.Wrap(err, "chainDB.GetLatestTransaction")
	}
	if latestTx != nil {
		previousTxHash = latestTx.Hash
	}

	totalStake := uint64(0)
	for i := range drawTickets {
		totalStake += drawTickets[i].Stake
	}
	ticketTree := tickets.BuildTree(drawTickets)

	tx := &database.DrawTransaction{
		DrawID:           draw.ID,
		DrawType:         draw.DrawType,
		WinningNumbers:   database.EncodeNumbers(numbers),
		VrfProof:         vrfProof,
		TicketsRoot:      ticketTree.Root().Hex(),
		Timestamp:        time.Now(),
		PreviousHash:     previousTxHash,
		ParticipantCount: len(drawTickets),
		TotalStake:       totalStake,
		BlockHeight:      latest.Height + 1,
	}
	tx.Hash = HashTransaction(tx).Hex()

	txTree := merkle.Build([]common.Hash{common.HexToHash(tx.Hash)})
	block := &database.Block{
		Height:       latest.Height + 1,
		Timestamp:    tx.Timestamp,
		PreviousHash: latest.Hash,
		MerkleRoot:   txTree.Root().Hex(),
		Difficulty:   l.difficulty,
	}

	if err := mineBlock(ctx, block); err != nil {
		return nil, nil, err
	}

	leafRows := tickets.BuildLeafRows(draw.ID, drawTickets)
	if err := l.db.CommitBlock(block, tx, leafRows); err != nil {
		return nil, nil, errors.Wrap(err, "chainDB.CommitBlock")
	}

	logger.Info("Recorded draw %d in block %d with hash %s (nonce %d)",
		draw.ID, block.Height, block.Hash, block.Nonce)
	return block, tx, nil
}

// Info is a snapshot of the chain for status reporting.
type Info struct {
	Height            uint64    `json:"height"`
	LatestHash        string    `json:"latestHash"`
	LatestBlockTime   time.Time `json:"latestBlockTime"`
	Difficulty        int       `json:"difficulty"`
	TotalBlocks       int64     `json:"totalBlocks"`
	TotalTransactions int64     `json:"totalTransactions"`
}

// GetInfo returns the current chain tip and counters.
func (l *Ledger) GetInfo() (*Info, error) {
	latest, err := l.db.GetLatestBlock()
	if err != nil {
		return nil, errors.Wrap(err, "chainDB.GetLatestBlock")
	}
	if latest == nil {
		return nil, errors.New("ledger has no genesis block")
	}

	blocks, err := l.db.CountBlocks()
	if err != nil {
		return nil, errors.Wrap(err, "chainDB.CountBlocks")
	}
	txs, err := l.db.CountTransactions()
	if err != nil {
		return nil, errors.Wrap(err, "chainDB.CountTransactions")
	}

	return &Info{
		Height:            latest.Height,
		LatestHash:        latest.Hash,
		LatestBlockTime:   latest.Timestamp,
		Difficulty:        l.difficulty,
		TotalBlocks:       blocks,
		TotalTransactions: txs,
	}, nil
}
