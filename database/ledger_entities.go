package database

import (
	"time"
)

// Block is one mined block of the draw ledger. Every block holds exactly
// one draw settlement transaction; the Merkle root is computed over the
// hashes of the transactions with block_height pointing here.
type Block struct {
	BaseEntity
	Height       uint64 `gorm:"uniqueIndex"`
	Timestamp    time.Time
	PreviousHash string `gorm:"type:varchar(66);not null"` // Hash of the block at height-1, "0" for genesis
	MerkleRoot   string `gorm:"type:varchar(66);not null"`
	Nonce        uint64
	Difficulty   int    // Number of leading zero hex digits required of Hash
	Hash         string `gorm:"type:varchar(66);uniqueIndex"`
}

// DrawTransaction is the settlement record of one executed draw. The
// transactions form their own hash chain through PreviousHash,
// independent of the block chain. TicketsRoot seals the participating
// ticket set: it enters the transaction hash, so ticket inclusion
// proofs are anchored in the mined chain.
type DrawTransaction struct {
	BaseEntity
	DrawID           uint64   `gorm:"uniqueIndex"`
	DrawType         DrawType `gorm:"type:varchar(10)"`
	WinningNumbers   string   `gorm:"type:varchar(100);not null"`
	VrfProof         string   `gorm:"type:varchar(140);not null"`
	TicketsRoot      string   `gorm:"type:varchar(66);not null"` // Merkle root over the draw's ticket hashes
	Timestamp        time.Time
	PreviousHash     string `gorm:"type:varchar(66);not null"` // Hash of the previous draw transaction, "0" for the first
	ParticipantCount int
	TotalStake       uint64 // In cents
	Hash             string `gorm:"type:varchar(66);uniqueIndex"`
	BlockHeight      uint64 `gorm:"index"` // Height of the block the transaction is mined into
}

// VrfSeed records the randomness derivation of one draw. At most one row
// per draw may ever exist.
type VrfSeed struct {
	BaseEntity
	DrawID    uint64 `gorm:"uniqueIndex"`
	Seed      string `gorm:"type:varchar(66);not null"`  // Hash of the draw inputs signed by the randomness service
	Proof     string `gorm:"type:varchar(140);not null"` // Signature over the seed
	Output    string `gorm:"type:varchar(66);not null"`  // Hash of the proof, source of the winning numbers
	PublicKey string `gorm:"type:varchar(140);not null"` // Public key the proof verifies against
	CreatedAt time.Time
}
