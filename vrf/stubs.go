// Stubs for the randomness service. These handle the direct interactions
// with the database. The actual logic is in vrf.go and numbers.go, which
// are unit-tested.
package vrf

import (
	"mutapa-lotto/database"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type vrfDBGorm struct {
	db *gorm.DB
}

func NewVrfDBGorm(db *gorm.DB) vrfDB {
	return vrfDBGorm{db: db}
}

func (v vrfDBGorm) GetSeed(drawID uint64) (*database.VrfSeed, error) {
	seed, err := database.FetchVrfSeed(v.db, drawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return seed, err
}

func (v vrfDBGorm) CreateSeed(seed *database.VrfSeed) error {
	return database.CreateVrfSeed(v.db, seed)
}
