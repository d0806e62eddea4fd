package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mutapa-lotto/logger"
	"mutapa-lotto/scheduler/context"
	"mutapa-lotto/scheduler/draws"
	"mutapa-lotto/scheduler/migrations"
	"mutapa-lotto/scheduler/shared"
)

func main() {
	ctx, err := context.BuildContext()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	err = migrations.Container.ExecuteAll(ctx.DB())
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}

	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, os.Interrupt, syscall.SIGTERM)

	// Prometheus metrics
	shared.InitMetricsServer(&ctx.Config().Metrics)

	scheduler, err := draws.NewScheduler(ctx)
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	shared.InitAdminServer(&ctx.Config().Admin, scheduler)

	go draws.RunCronjob(scheduler)

	<-cancelChan
	logger.Info("Stopped draw scheduler")
}
