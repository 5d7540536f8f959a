package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/dropout/apps/api/echo"
	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/user"
	logsvc "github.com/trezcool/dropout/services/logger"
	"github.com/trezcool/dropout/storage/csvstore"
	inmemstore "github.com/trezcool/dropout/storage/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stdout, conf.Debug), "API", conf)
	logger.Enable(!conf.Debug)

	// the backing file must be readable before serving anything
	store := csvstore.New(conf.DataFile)
	tbl, err := store.Load(context.Background())
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading data file: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(store, inmemstore.NewSessionRepository(), validate, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build),
		map[string]interface{}{"dataFile": store.Path(), "rows": len(tbl.Users)})
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
