package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrDrawCompleted is returned by CompleteDraw for a draw that is
// already completed. Completed draws are frozen.
var ErrDrawCompleted = errors.New("draw already completed")

func FetchDraw(db *gorm.DB, id uint64) (*Draw, error) {
	var draw Draw
	err := db.Where(&Draw{BaseEntity: BaseEntity{ID: id}}).First(&draw).Error
	if err != nil {
		return nil, err
	}
	return &draw, nil
}

// FetchUpcomingDraw returns the earliest scheduled draw of the given
// type, or gorm.ErrRecordNotFound if none is pending.
func FetchUpcomingDraw(db *gorm.DB, drawType DrawType) (*Draw, error) {
	var draw Draw
	err := db.Where(&Draw{DrawType: drawType, Status: DrawStatusScheduled}).
		Order("draw_date asc").
		First(&draw).Error
	if err != nil {
		return nil, err
	}
	return &draw, nil
}

// FetchDueDraws returns all scheduled draws of the given type due at or
// before the given time, earliest first.
func FetchDueDraws(db *gorm.DB, drawType DrawType, now time.Time) ([]Draw, error) {
	var draws []Draw
	err := db.Where(&Draw{DrawType: drawType, Status: DrawStatusScheduled}).
		Where("draw_date <= ?", now).
		Order("draw_date asc").
		Find(&draws).Error
	return draws, err
}

// FetchRecentDraws returns the latest completed draws, most recently
// executed first.
func FetchRecentDraws(db *gorm.DB, drawType DrawType, limit int) ([]Draw, error) {
	if limit <= 0 {
		limit = 10
	}
	var draws []Draw
	err := db.Where(&Draw{DrawType: drawType, Status: DrawStatusCompleted}).
		Order("executed_at desc").
		Limit(limit).
		Find(&draws).Error
	return draws, err
}

// FetchDrawsByStatus returns all draws currently in the given status,
// oldest first.
func FetchDrawsByStatus(db *gorm.DB, status DrawStatus) ([]Draw, error) {
	var draws []Draw
	err := db.Where(&Draw{Status: status}).Order("draw_date asc").Find(&draws).Error
	return draws, err
}

func CreateDraw(db *gorm.DB, draw *Draw) error {
	return db.Create(draw).Error
}

func UpdateDraw(db *gorm.DB, draw *Draw) error {
	return db.Save(draw).Error
}

// CompleteDraw freezes an executed draw: it writes the winning numbers,
// the settlement transaction hash and the execution time, and flips the
// status to completed. It is the only mutation path for these fields
// and fails with ErrDrawCompleted when the draw is already completed.
func CompleteDraw(db *gorm.DB, drawID uint64, numbers []int, blockchainHash string, executedAt time.Time) error {
	return DoInTransaction(db, func(tx *gorm.DB) error {
		draw, err := FetchDraw(tx, drawID)
		if err != nil {
			return err
		}
		if draw.Status == DrawStatusCompleted {
			return ErrDrawCompleted
		}
		draw.Status = DrawStatusCompleted
		draw.WinningNumbers = EncodeNumbers(numbers)
		draw.BlockchainHash = blockchainHash
		draw.ExecutedAt = &executedAt
		return UpdateDraw(tx, draw)
	})
}

// FetchDrawTickets returns the tickets of a draw ordered by ticket ID.
// This order is canonical for Merkle leaf assignment.
func FetchDrawTickets(db *gorm.DB, drawID uint64) ([]Ticket, error) {
	var tickets []Ticket
	err := db.Where(&Ticket{DrawID: drawID}).Order("id asc").Find(&tickets).Error
	return tickets, err
}

func FetchTicket(db *gorm.DB, id uint64) (*Ticket, error) {
	var ticket Ticket
	err := db.Where(&Ticket{BaseEntity: BaseEntity{ID: id}}).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func CreateTicket(db *gorm.DB, ticket *Ticket) error {
	return db.Create(ticket).Error
}

func CreateTicketHashes(db *gorm.DB, hashes []*TicketHash) error {
	if len(hashes) == 0 { // attempt to create from an empty slice returns error
		return nil
	}
	return db.Create(hashes).Error
}

func FetchTicketHash(db *gorm.DB, ticketID uint64) (*TicketHash, error) {
	var hash TicketHash
	err := db.Where(&TicketHash{TicketID: ticketID}).First(&hash).Error
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

// FetchDrawTicketHashes returns the stored leaf hashes of a draw in leaf
// index order.
func FetchDrawTicketHashes(db *gorm.DB, drawID uint64) ([]TicketHash, error) {
	var hashes []TicketHash
	err := db.Where(&TicketHash{DrawID: drawID}).Order("leaf_index asc").Find(&hashes).Error
	return hashes, err
}
