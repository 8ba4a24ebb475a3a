package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	echoapi "github.com/annourmah/etudia/apps/api/echo"
	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/notif"
	"github.com/annourmah/etudia/core/student"
	"github.com/annourmah/etudia/core/user"
	emailsvc "github.com/annourmah/etudia/services/email"
	logsvc "github.com/annourmah/etudia/services/logger"
	mirrorsvc "github.com/annourmah/etudia/services/mirror"
	"github.com/annourmah/etudia/storage/kvstore"
	"github.com/annourmah/etudia/storage/localstore"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(std, err)

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	// set up storage
	kv, err := kvstore.NewFileStore(filepath.Join(conf.DataDir, "etudia.json"))
	errAndDie(std, err)
	store := localstore.New(kv)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate, translator := core.NewValidation()
	user.RegisterValidators(validate, translator)

	notifs := notif.NewCenter()

	var mirror student.Mirror
	if conf.Mirror.BaseURL != "" {
		client := mirrorsvc.NewClient(conf, store, notifs, logger)
		go client.StartProbeLoop(context.Background())
		mirror = client
	}

	studentSvc, err := student.NewService(store, notifs, mirror, logger)
	errAndDie(std, err)
	usrSvc, err := user.NewService(conf, store, mailSvc, logger)
	errAndDie(std, err)
	sessions := user.NewSessionManager(conf, kv, logger)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:       conf,
			Logger:     logger,
			StudentSvc: studentSvc,
			UserSvc:    usrSvc,
			Sessions:   sessions,
			Notifs:     notifs,
			Settings:   store,
			Validate:   validate,
			Translator: translator,
		},
	)
	app.Start()
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
