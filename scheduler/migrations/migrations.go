package migrations

import (
	"sort"
	"time"

	"mutapa-lotto/database"
	"mutapa-lotto/logger"

	"gorm.io/gorm"
)

var Container = migrationContainer{}

type migration struct {
	version     string
	description string
	execute     func(db *gorm.DB) error
}

type migrationContainer struct {
	migrations []migration
}

func (c *migrationContainer) Add(version string, description string, execute func(db *gorm.DB) error) {
	c.migrations = append(c.migrations, migration{version, description, execute})
}

// ExecuteAll runs all registered migrations that have not completed yet,
// in version order. Each migration runs in its own transaction and is
// recorded in the migrations table; a failed migration stops the run.
func (c *migrationContainer) ExecuteAll(db *gorm.DB) error {
	executed, err := database.FetchMigrations(db)
	if err != nil {
		return err
	}
	completed := make(map[string]bool)
	for _, m := range executed {
		if m.Status == database.MigrationCompleted {
			completed[m.Version] = true
		}
	}

	sort.Slice(c.migrations, func(i, j int) bool {
		return c.migrations[i].version < c.migrations[j].version
	})
	for _, m := range c.migrations {
		if completed[m.version] {
			continue
		}
		if err := c.executeOne(db, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *migrationContainer) executeOne(db *gorm.DB, m migration) error {
	logger.Info("Executing migration %s: %s", m.version, m.description)
	start := time.Now()

	err := database.DoInTransaction(db, m.execute)

	record := &database.Migration{
		Version:     m.version,
		Description: m.description,
		ExecutedAt:  time.Now(),
		Duration:    int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		record.Status = database.MigrationFailed
		if createErr := database.CreateMigration(db, record); createErr != nil {
			logger.Error("Failed recording migration %s failure: %v", m.version, createErr)
		}
		return err
	}
	record.Status = database.MigrationCompleted
	return database.CreateMigration(db, record)
}
