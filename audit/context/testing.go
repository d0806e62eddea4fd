package context

import (
	"mutapa-lotto/audit/config"
	globalConfig "mutapa-lotto/config"
	"mutapa-lotto/database"
)

func BuildTestContext(cfg *config.Config) (AuditContext, error) {
	ctx := auditContext{}
	var err error

	ctx.config = cfg
	globalConfig.GlobalConfigCallback.Call(cfg)

	ctx.db, err = database.ConnectAndInitializeTestDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	return &ctx, nil
}
