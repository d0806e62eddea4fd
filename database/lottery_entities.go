package database

import (
	"time"
)

// Draw is one scheduled lottery draw. WinningNumbers, BlockchainHash
// and ExecutedAt stay empty until the draw has been executed; once the
// status is completed the row is frozen and CompleteDraw refuses it.
type Draw struct {
	BaseEntity
	DrawType       DrawType   `gorm:"type:varchar(10);index"`
	DrawDate       time.Time  `gorm:"index"` // Time the draw is due to execute
	Status         DrawStatus `gorm:"type:varchar(10);index"`
	WinningNumbers string     `gorm:"type:varchar(100)"`
	JackpotAmount  uint64     // In cents
	BlockchainHash string     `gorm:"type:varchar(66)"` // Hash of the settlement transaction
	ExecutedAt     *time.Time
}

// Ticket is a purchased entry for a draw. Rows are written by the ticket
// sales service; this module only reads them.
type Ticket struct {
	BaseEntity
	DrawID      uint64 `gorm:"index"`
	PlayerID    uint64 `gorm:"index"`
	Numbers     string `gorm:"type:varchar(100);not null"`
	Stake       uint64 // In cents
	PurchasedAt time.Time
}

// TicketHash pins a ticket to its leaf in the Merkle tree of its draw.
// Leaf indexes follow ticket ID order and are assigned when the draw is
// executed.
type TicketHash struct {
	BaseEntity
	TicketID  uint64 `gorm:"uniqueIndex"`
	DrawID    uint64 `gorm:"index"`
	LeafIndex int
	Hash      string `gorm:"type:varchar(66);not null"`
	CreatedAt time.Time
}
