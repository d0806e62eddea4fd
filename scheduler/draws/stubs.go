package draws

import (
	"time"

	"mutapa-lotto/database"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type drawsDBGorm struct {
	db *gorm.DB
}

func NewDrawsDBGorm(db *gorm.DB) drawsDB {
	return drawsDBGorm{db: db}
}

func (d drawsDBGorm) GetDraw(id uint64) (*database.Draw, error) {
	draw, err := database.FetchDraw(d.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return draw, err
}

func (d drawsDBGorm) GetUpcomingDraw(drawType database.DrawType) (*database.Draw, error) {
	draw, err := database.FetchUpcomingDraw(d.db, drawType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return draw, err
}

func (d drawsDBGorm) GetDueDraws(drawType database.DrawType, now time.Time) ([]database.Draw, error) {
	return database.FetchDueDraws(d.db, drawType, now)
}

func (d drawsDBGorm) GetExecutingDraws() ([]database.Draw, error) {
	return database.FetchDrawsByStatus(d.db, database.DrawStatusExecuting)
}

func (d drawsDBGorm) CreateDraw(draw *database.Draw) error {
	return database.CreateDraw(d.db, draw)
}

func (d drawsDBGorm) UpdateDraw(draw *database.Draw) error {
	return database.UpdateDraw(d.db, draw)
}

func (d drawsDBGorm) CompleteDraw(drawID uint64, numbers []int, blockchainHash string, executedAt time.Time) error {
	return database.CompleteDraw(d.db, drawID, numbers, blockchainHash, executedAt)
}

func (d drawsDBGorm) GetDrawTickets(drawID uint64) ([]database.Ticket, error) {
	return database.FetchDrawTickets(d.db, drawID)
}

func (d drawsDBGorm) GetSettlement(drawID uint64) (*database.DrawTransaction, error) {
	tx, err := database.FetchDrawTransaction(d.db, drawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return tx, err
}

func (d drawsDBGorm) GetSeed(drawID uint64) (*database.VrfSeed, error) {
	seed, err := database.FetchVrfSeed(d.db, drawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return seed, err
}
