package ledger

import (
	"context"
	"fmt"

	"mutapa-lotto/database"
	"mutapa-lotto/utils"
	"mutapa-lotto/utils/merkle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrTransactionNotFound is returned when a draw has no settlement
// transaction on the ledger.
var ErrTransactionNotFound = errors.New("draw transaction not found")

// Number of blocks loaded per batch during full chain verification.
const verifyBatchSize = 500

// DrawIntegrityReport is the outcome of the four independent checks run
// against a settled draw.
type DrawIntegrityReport struct {
	DrawID               uint64   `json:"drawId"`
	BlockHeight          uint64   `json:"blockHeight"`
	TransactionHashValid bool     `json:"transactionHashValid"`
	BlockHashValid       bool     `json:"blockHashValid"`
	MerkleRootValid      bool     `json:"merkleRootValid"`
	ChainLinkValid       bool     `json:"chainLinkValid"`
	Details              []string `json:"details,omitempty"`
}

func (r *DrawIntegrityReport) Valid() bool {
	return r.TransactionHashValid && r.BlockHashValid && r.MerkleRootValid && r.ChainLinkValid
}

// VerifyDrawIntegrity re-checks the settlement of one draw: the
// transaction hash, the hash and proof-of-work of the containing block,
// the block's Merkle root and the hash links to the predecessors. The
// four checks run concurrently; a report with all checks passing means
// the draw result has not been tampered with.
func (l *Ledger) VerifyDrawIntegrity(drawID uint64) (*DrawIntegrityReport, error) {
	tx, err := l.db.GetTransaction(drawID)
	if err != nil {
		return nil, errors.Wrap(err, "chainDB.GetTransaction")
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}

	report := &DrawIntegrityReport{
		DrawID:      drawID,
		BlockHeight: tx.BlockHeight,
	}
	details := make([]string, 4)

	eg, _ := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		report.TransactionHashValid, details[0] = l.checkTransactionHash(tx)
		return nil
	})
	eg.Go(func() error {
		valid, detail, err := l.checkBlockHash(tx.BlockHeight)
		if err != nil {
			return err
		}
		report.BlockHashValid, details[1] = valid, detail
		return nil
	})
	eg.Go(func() error {
		valid, detail, err := l.checkMerkleRoot(tx)
		if err != nil {
			return err
		}
		report.MerkleRootValid, details[2] = valid, detail
		return nil
	})
	eg.Go(func() error {
		valid, detail, err := l.checkChainLinks(tx)
		if err != nil {
			return err
		}
		report.ChainLinkValid, details[3] = valid, detail
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, detail := range details {
		if len(detail) > 0 {
			report.Details = append(report.Details, detail)
		}
	}
	return report, nil
}

func (l *Ledger) checkTransactionHash(tx *database.DrawTransaction) (bool, string) {
	if HashTransaction(tx).Hex() != tx.Hash {
		return false, fmt.Sprintf("transaction hash mismatch for draw %d", tx.DrawID)
	}
	return true, ""
}

func (l *Ledger) checkBlockHash(height uint64) (bool, string, error) {
	block, err := l.db.GetBlockByHeight(height)
	if err != nil {
		return false, "", errors.Wrap(err, "chainDB.GetBlockByHeight")
	}
	if block == nil {
		return false, fmt.Sprintf("block %d not found", height), nil
	}
	if HashBlock(block, block.Nonce).Hex() != block.Hash {
		return false, fmt.Sprintf("block %d hash mismatch", height), nil
	}
	if !MeetsDifficulty(common.HexToHash(block.Hash), block.Difficulty) {
		return false, fmt.Sprintf("block %d does not meet difficulty %d", height, block.Difficulty), nil
	}
	return true, "", nil
}

func (l *Ledger) checkMerkleRoot(tx *database.DrawTransaction) (bool, string, error) {
	block, err := l.db.GetBlockByHeight(tx.BlockHeight)
	if err != nil {
		return false, "", errors.Wrap(err, "chainDB.GetBlockByHeight")
	}
	if block == nil {
		return false, fmt.Sprintf("block %d not found", tx.BlockHeight), nil
	}

	blockTxs, err := l.db.GetBlockTransactions(tx.BlockHeight)
	if err != nil {
		return false, "", errors.Wrap(err, "chainDB.GetBlockTransactions")
	}

	leaves := utils.Map(blockTxs, func(t database.DrawTransaction) common.Hash {
		return common.HexToHash(t.Hash)
	})
	if merkle.Build(leaves).Root().Hex() != block.MerkleRoot {
		return false, fmt.Sprintf("merkle root mismatch in block %d", tx.BlockHeight), nil
	}

	for _, blockTx := range blockTxs {
		if blockTx.Hash == tx.Hash {
			return true, "", nil
		}
	}
	return false, fmt.Sprintf("transaction of draw %d not among block %d transactions", tx.DrawID, tx.BlockHeight), nil
}

func (l *Ledger) checkChainLinks(tx *database.DrawTransaction) (bool, string, error) {
	block, err := l.db.GetBlockByHeight(tx.BlockHeight)
	if err != nil {
		return false, "", errors.Wrap(err, "chainDB.GetBlockByHeight")
	}
	if block == nil {
		return false, fmt.Sprintf("block %d not found", tx.BlockHeight), nil
	}

	if block.Height == 0 {
		if block.PreviousHash != NoPreviousHash {
			return false, "genesis block has a previous hash", nil
		}
	} else {
		parent, err := l.db.GetBlockByHeight(block.Height - 1)
		if err != nil {
			return false, "", errors.Wrap(err, "chainDB.GetBlockByHeight")
		}
		if parent == nil {
			return false, fmt.Sprintf("block %d has no parent", block.Height), nil
		}
		if block.PreviousHash != parent.Hash {
			return false, fmt.Sprintf("block %d does not link to its parent", block.Height), nil
		}
	}

	previous, err := l.db.GetTransactionBefore(tx.ID)
	if err != nil {
		return false, "", errors.Wrap(err, "chainDB.GetTransactionBefore")
	}
	expected := NoPreviousHash
	if previous != nil {
		expected = previous.Hash
	}
	if tx.PreviousHash != expected {
		return false, fmt.Sprintf("transaction of draw %d does not link to its predecessor", tx.DrawID), nil
	}
	return true, "", nil
}

// ChainReport is the outcome of a full chain verification pass.
type ChainReport struct {
	Valid               bool   `json:"valid"`
	BlocksChecked       int64  `json:"blocksChecked"`
	TransactionsChecked int64  `json:"transactionsChecked"`
	Violation           string `json:"violation,omitempty"`
}

// VerifyChain walks the whole ledger from genesis and re-checks every
// invariant: height continuity, hash links, proof-of-work, Merkle roots
// and the transaction hash chain. It stops at the first violation.
func (l *Ledger) VerifyChain(ctx context.Context) (*ChainReport, error) {
	report := &ChainReport{Valid: true}

	var previousBlock *database.Block
	previousTxHash := NoPreviousHash

	for height := uint64(0); ; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		blocks, err := l.db.GetBlocksFrom(height, verifyBatchSize)
		if err != nil {
			return nil, errors.Wrap(err, "chainDB.GetBlocksFrom")
		}
		if len(blocks) == 0 {
			break
		}

		for i := range blocks {
			block := &blocks[i]
			violation, txCount, lastTxHash, err := l.verifyBlock(block, previousBlock, previousTxHash)
			if err != nil {
				return nil, err
			}
			if len(violation) > 0 {
				report.Valid = false
				report.Violation = violation
				return report, nil
			}
			if txCount > 0 {
				previousTxHash = lastTxHash
				report.TransactionsChecked += int64(txCount)
			}
			previousBlock = block
			report.BlocksChecked++
		}
		height = blocks[len(blocks)-1].Height + 1
	}

	if previousBlock == nil {
		report.Valid = false
		report.Violation = "ledger has no genesis block"
	}
	return report, nil
}

// verifyBlock checks one block against its predecessor and returns the
// number of transactions it holds and the hash of the last one, for
// verifying the transaction chain across blocks.
func (l *Ledger) verifyBlock(
	block *database.Block,
	previousBlock *database.Block,
	previousTxHash string,
) (string, int, string, error) {
	if previousBlock == nil {
		if block.Height != 0 {
			return fmt.Sprintf("chain starts at height %d instead of 0", block.Height), 0, "", nil
		}
		if block.PreviousHash != NoPreviousHash {
			return "genesis block has a previous hash", 0, "", nil
		}
	} else {
		if block.Height != previousBlock.Height+1 {
			return fmt.Sprintf("height gap between blocks %d and %d", previousBlock.Height, block.Height), 0, "", nil
		}
		if block.PreviousHash != previousBlock.Hash {
			return fmt.Sprintf("block %d does not link to block %d", block.Height, previousBlock.Height), 0, "", nil
		}
	}

	if HashBlock(block, block.Nonce).Hex() != block.Hash {
		return fmt.Sprintf("block %d hash mismatch", block.Height), 0, "", nil
	}
	if !MeetsDifficulty(common.HexToHash(block.Hash), block.Difficulty) {
		return fmt.Sprintf("block %d does not meet difficulty %d", block.Height, block.Difficulty), 0, "", nil
	}

	blockTxs, err := l.db.GetBlockTransactions(block.Height)
	if err != nil {
		return "", 0, "", errors.Wrap(err, "chainDB.GetBlockTransactions")
	}

	leaves := utils.Map(blockTxs, func(t database.DrawTransaction) common.Hash {
		return common.HexToHash(t.Hash)
	})
	if merkle.Build(leaves).Root().Hex() != block.MerkleRoot {
		return fmt.Sprintf("merkle root mismatch in block %d", block.Height), 0, "", nil
	}

	lastTxHash := ""
	for i := range blockTxs {
		tx := &blockTxs[i]
		if HashTransaction(tx).Hex() != tx.Hash {
			return fmt.Sprintf("transaction hash mismatch for draw %d", tx.DrawID), 0, "", nil
		}
		if tx.PreviousHash != previousTxHash {
			return fmt.Sprintf("transaction of draw %d does not link to its predecessor", tx.DrawID), 0, "", nil
		}
		previousTxHash = tx.Hash
		lastTxHash = tx.Hash
	}
	return "", len(blockTxs), lastTxHash, nil
}
