package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mutapa-lotto/audit/context"
	"mutapa-lotto/audit/routes"
	"mutapa-lotto/audit/shared"
	"mutapa-lotto/audit/utils"
	"mutapa-lotto/logger"

	"github.com/gorilla/mux"
)

func main() {
	ctx, err := context.BuildContext()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}

	muxRouter := mux.NewRouter()
	router := utils.NewSwaggerRouter(muxRouter, "Mutapa Lotto Audit", "0.1.0")
	routes.AddVerificationRoutes(router, ctx)
	routes.AddStatusRoutes(router, ctx)

	router.Finalize()

	// Prometheus metrics
	shared.InitMetricsServer(&ctx.Config().Metrics)

	address := ctx.Config().Audit.Address
	srv := &http.Server{
		Handler: muxRouter,
		Addr:    address,
	}

	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting audit server on %s", address)
		err := srv.ListenAndServe()
		if err != nil {
			logger.Error("Server error: %v", err)
		}
	}()

	<-cancelChan
	logger.Info("Shutting down audit server")
}
