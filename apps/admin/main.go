package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/user"
	emailsvc "github.com/annourmah/etudia/services/email"
	logsvc "github.com/annourmah/etudia/services/logger"
	"github.com/annourmah/etudia/storage/kvstore"
	"github.com/annourmah/etudia/storage/localstore"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(false)

	// set up storage
	kv, err := kvstore.NewFileStore(filepath.Join(conf.DataDir, "etudia.json"))
	errAndDie(err)
	store := localstore.New(kv)

	validate, translator := core.NewValidation()
	user.RegisterValidators(validate, translator)

	usrSvc, err := user.NewService(conf, store, emailsvc.NewConsoleService(conf), appLogger)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		usrSvc:   usrSvc,
		validate: validate,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
