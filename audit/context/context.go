package context

import (
	"mutapa-lotto/audit/config"
	globalConfig "mutapa-lotto/config"
	"mutapa-lotto/database"

	"gorm.io/gorm"
)

type AuditContext interface {
	Config() *config.Config
	DB() *gorm.DB
}

type auditContext struct {
	config *config.Config
	db     *gorm.DB
}

func BuildContext() (AuditContext, error) {
	ctx := auditContext{}

	cfg, err := config.BuildConfig()
	if err != nil {
		return nil, err
	}
	ctx.config = cfg
	globalConfig.GlobalConfigCallback.Call(cfg)

	// The scheduler owns the schema, the audit binary only connects.
	ctx.db, err = database.Connect(&cfg.DB)
	if err != nil {
		return nil, err
	}

	return &ctx, nil
}

func (c *auditContext) Config() *config.Config { return c.config }

func (c *auditContext) DB() *gorm.DB { return c.db }
