package context

import (
	globalConfig "mutapa-lotto/config"
	"mutapa-lotto/database"
	"mutapa-lotto/scheduler/config"
	"mutapa-lotto/scheduler/migrations"
)

func BuildTestContext(cfg *config.Config) (SchedulerContext, error) {
	ctx := schedulerContext{}
	var err error

	ctx.config = cfg
	globalConfig.GlobalConfigCallback.Call(cfg)

	ctx.db, err = database.ConnectAndInitializeTestDB(&cfg.DB)
	if err != nil {
		return nil, err
	}

	err = migrations.Container.ExecuteAll(ctx.db)
	if err != nil {
		return nil, err
	}

	return &ctx, nil
}
