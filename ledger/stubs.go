// Stubs for the ledger. These handle the direct interactions with the
// database. The actual logic is in ledger.go, mining.go and verify.go,
// which are unit-tested.
package ledger

import (
	"mutapa-lotto/database"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type chainDBGorm struct {
	db *gorm.DB
}

func NewChainDBGorm(db *gorm.DB) chainDB {
	return chainDBGorm{db: db}
}

func (c chainDBGorm) GetLatestBlock() (*database.Block, error) {
	block, err := database.FetchLatestBlock(c.db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return block, err
}

func (c chainDBGorm) GetBlockByHeight(height uint64) (*database.Block, error) {
	block, err := database.FetchBlockByHeight(c.db, height)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return block, err
}

func (c chainDBGorm) GetBlocksFrom(fromHeight uint64, limit int) ([]database.Block, error) {
	return database.FetchBlocksFrom(c.db, fromHeight, limit)
}

func (c chainDBGorm) CountBlocks() (int64, error) {
	return database.CountBlocks(c.db)
}

func (c chainDBGorm) GetLatestTransaction() (*database.DrawTransaction, error) {
	tx, err := database.FetchLatestDrawTransaction(c.db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return tx, err
}

func (c chainDBGorm) GetTransaction(drawID uint64) (*database.DrawTransaction, error) {
	tx, err := database.FetchDrawTransaction(c.db, drawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return tx, err
}

func (c chainDBGorm) GetTransactionBefore(id uint64) (*database.DrawTransaction, error) {
	var tx database.DrawTransaction
	err := c.db.Where("id < ?", id).Order("id desc").First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c chainDBGorm) GetBlockTransactions(height uint64) ([]database.DrawTransaction, error) {
	return database.FetchBlockTransactions(c.db, height)
}

func (c chainDBGorm) CountTransactions() (int64, error) {
	return database.CountDrawTransactions(c.db)
}

func (c chainDBGorm) CommitBlock(
	block *database.Block,
	tx *database.DrawTransaction,
	leafRows []*database.TicketHash,
) error {
	return database.DoInTransaction(c.db,
		func(db *gorm.DB) error {
			// the tip must not have moved since the block was built
			latest, err := database.FetchLatestBlock(db)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if block.Height != 0 {
					return errors.Wrap(ErrChainIntegrityViolation, "ledger is empty")
				}
				return nil
			}
			if err != nil {
				return err
			}
			if block.Height != latest.Height+1 || block.PreviousHash != latest.Hash {
				return errors.Wrapf(ErrChainIntegrityViolation,
					"block %d built on stale tip", block.Height)
			}
			return nil
		},
		func(db *gorm.DB) error {
			return db.Create(block).Error
		},
		func(db *gorm.DB) error {
			if tx == nil {
				return nil
			}
			return db.Create(tx).Error
		},
		func(db *gorm.DB) error {
			return database.CreateTicketHashes(db, leafRows)
		},
		func(db *gorm.DB) error {
			return advanceLedgerState(db, block.Height)
		},
	)
}

func advanceLedgerState(db *gorm.DB, height uint64) error {
	state, err := database.FetchState(db, StateName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = database.State{Name: StateName}
		state.Update(height+1, height)
		return database.CreateState(db, &state)
	}
	if err != nil {
		return err
	}
	state.Update(height+1, height)
	return database.UpdateState(db, &state)
}
