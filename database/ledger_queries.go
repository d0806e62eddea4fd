package database

import (
	"gorm.io/gorm"
)

func FetchBlockByHeight(db *gorm.DB, height uint64) (*Block, error) {
	var block Block
	err := db.Where(&Block{Height: height}).First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func FetchBlockByHash(db *gorm.DB, hash string) (*Block, error) {
	var block Block
	err := db.Where("hash = ?", hash).First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// FetchLatestBlock returns the block with the greatest height, or
// gorm.ErrRecordNotFound for an empty ledger.
func FetchLatestBlock(db *gorm.DB) (*Block, error) {
	var block Block
	err := db.Order("height desc").First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// FetchBlocksFrom returns up to limit blocks starting at the given
// height, ordered by ascending height.
func FetchBlocksFrom(db *gorm.DB, fromHeight uint64, limit int) ([]Block, error) {
	var blocks []Block
	err := db.Where("height >= ?", fromHeight).Order("height asc").Limit(limit).Find(&blocks).Error
	return blocks, err
}

func CountBlocks(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Block{}).Count(&count).Error
	return count, err
}

func FetchDrawTransaction(db *gorm.DB, drawID uint64) (*DrawTransaction, error) {
	var tx DrawTransaction
	err := db.Where(&DrawTransaction{DrawID: drawID}).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FetchLatestDrawTransaction returns the most recently committed draw
// transaction, or gorm.ErrRecordNotFound if there is none yet.
func FetchLatestDrawTransaction(db *gorm.DB) (*DrawTransaction, error) {
	var tx DrawTransaction
	err := db.Order("id desc").First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FetchBlockTransactions returns the transactions mined into the block
// at the given height in commit order.
func FetchBlockTransactions(db *gorm.DB, height uint64) ([]DrawTransaction, error) {
	var txs []DrawTransaction
	err := db.Where("block_height = ?", height).Order("id asc").Find(&txs).Error
	return txs, err
}

func CountDrawTransactions(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&DrawTransaction{}).Count(&count).Error
	return count, err
}

func FetchVrfSeed(db *gorm.DB, drawID uint64) (*VrfSeed, error) {
	var seed VrfSeed
	err := db.Where(&VrfSeed{DrawID: drawID}).First(&seed).Error
	if err != nil {
		return nil, err
	}
	return &seed, nil
}

func CreateVrfSeed(db *gorm.DB, seed *VrfSeed) error {
	return db.Create(seed).Error
}
