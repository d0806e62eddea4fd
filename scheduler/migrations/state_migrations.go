package migrations

import (
	"time"

	"mutapa-lotto/database"
	"mutapa-lotto/ledger"

	"gorm.io/gorm"
)

func init() {
	Container.Add("2025-03-10-00-00", "Create initial state for the draw ledger", createLedgerState)
}

func createLedgerState(db *gorm.DB) error {
	return database.CreateState(db, &database.State{
		Name:           ledger.StateName,
		NextDBIndex:    0,
		LastChainIndex: 0,
		Updated:        time.Now(),
	})
}
