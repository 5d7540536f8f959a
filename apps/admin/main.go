package main

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/user"
	logsvc "github.com/trezcool/dropout/services/logger"
	"github.com/trezcool/dropout/storage/csvstore"
	inmemstore "github.com/trezcool/dropout/storage/inmem"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stderr, conf.Debug), "ADMIN", conf)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc:     user.NewService(csvstore.New(conf.DataFile), inmemstore.NewSessionRepository(), validate, conf),
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			if core.IsStorageError(err) {
				logger.Fatal("data file unusable", err)
			}
			logger.Error(cli.errorMessage(err))
		}
		os.Exit(1)
	}
}
