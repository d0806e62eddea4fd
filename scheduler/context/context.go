package context

import (
	globalConfig "mutapa-lotto/config"
	"mutapa-lotto/database"
	"mutapa-lotto/scheduler/config"

	"gorm.io/gorm"
)

type SchedulerContext interface {
	Config() *config.Config
	DB() *gorm.DB
}

type schedulerContext struct {
	config *config.Config
	db     *gorm.DB
}

func BuildContext() (SchedulerContext, error) {
	ctx := schedulerContext{}

	cfg, err := config.BuildConfig()
	if err != nil {
		return nil, err
	}
	ctx.config = cfg
	globalConfig.GlobalConfigCallback.Call(cfg)

	ctx.db, err = database.ConnectAndInitialize(&cfg.DB)
	if err != nil {
		return nil, err
	}
	return &ctx, nil
}

func (c *schedulerContext) Config() *config.Config { return c.config }

func (c *schedulerContext) DB() *gorm.DB { return c.db }
