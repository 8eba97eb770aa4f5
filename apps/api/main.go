package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/proclass/backend/apps/api/echo"
	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/lesson"
	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/reminder"
	"github.com/proclass/backend/core/student"
	"github.com/proclass/backend/core/user"
	logsvc "github.com/proclass/backend/services/logger"
	whatsappsvc "github.com/proclass/backend/services/whatsapp"
	"github.com/proclass/backend/storage/database"
	sqlxrepos "github.com/proclass/backend/storage/database/sqlx"
)

// build is set during compilation (go build -ldflags "-X main.build=...")
var build = "dev"

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig(build)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up repositories
	usrRepo := sqlxrepos.NewUserRepository(db)
	stdRepo := sqlxrepos.NewStudentRepository(db)
	pmtRepo := sqlxrepos.NewPaymentRepository(db)
	lsnRepo := sqlxrepos.NewLessonRepository(db)
	polRepo := sqlxrepos.NewPolicyRepository(db)
	ledger := sqlxrepos.NewReminderLedger(db)

	// set up services
	// system notifications (password resets) go to the console; reminders go
	// through each teacher's own Twilio credentials
	msgSvc := whatsappsvc.NewConsoleService()
	channels := func(pol reminder.Policy) core.MessagingService {
		return whatsappsvc.NewTwilioService(pol.AccountSID, pol.AuthToken, pol.FromNumber)
	}
	if conf.Debug {
		channels = func(reminder.Policy) core.MessagingService { return msgSvc }
	}

	usrSvc := user.NewService(conf, usrRepo, msgSvc, logger)
	stdSvc := student.NewService(stdRepo)
	pmtSvc := payment.NewService(pmtRepo)
	lsnSvc := lesson.NewService(lsnRepo)
	rmdSvc := reminder.NewService(conf, stdRepo, pmtRepo, polRepo, ledger, channels, logger)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			UserSvc:     usrSvc,
			StudentSvc:  stdSvc,
			PaymentSvc:  pmtSvc,
			LessonSvc:   lsnSvc,
			ReminderSvc: rmdSvc,
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

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
