package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/reminder"
	"github.com/proclass/backend/core/user"
	logsvc "github.com/proclass/backend/services/logger"
	whatsappsvc "github.com/proclass/backend/services/whatsapp"
	"github.com/proclass/backend/storage/database"
	sqlxrepos "github.com/proclass/backend/storage/database/sqlx"
)

// build is set during compilation (go build -ldflags "-X main.build=...")
var build = "dev"

func main() {
	conf, err := core.NewConfig(build)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "SCHED : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
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

	usrRepo := sqlxrepos.NewUserRepository(db)
	stdRepo := sqlxrepos.NewStudentRepository(db)
	pmtRepo := sqlxrepos.NewPaymentRepository(db)
	polRepo := sqlxrepos.NewPolicyRepository(db)
	ledger := sqlxrepos.NewReminderLedger(db)

	channels := func(pol reminder.Policy) core.MessagingService {
		return whatsappsvc.NewTwilioService(pol.AccountSID, pol.AuthToken, pol.FromNumber)
	}
	if conf.Debug {
		console := whatsappsvc.NewConsoleService()
		channels = func(reminder.Policy) core.MessagingService { return console }
	}
	rmdSvc := reminder.NewService(conf, stdRepo, pmtRepo, polRepo, ledger, channels, logger)
	usrSvc := user.NewService(conf, usrRepo, whatsappsvc.NewConsoleService(), logger)

	job := reminderJob{users: usrSvc, reminders: rmdSvc, logger: logger}

	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.New(os.Stdout, "CRON : ", log.LstdFlags)))))
	if _, err = c.AddFunc(conf.Reminder.CronSpec, job.run); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling reminder job: %v", err), err)
	}
	c.Start()
	logger.Info(fmt.Sprintf("scheduler started : reminder job at %q", conf.Reminder.CronSpec))
	defer logger.Info("scheduler stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// let a running batch finish
	<-c.Stop().Done()
}

// reminderJob runs the daily reminder batch for every registered teacher.
// Per-teacher failures are logged and do not stop the sweep.
type reminderJob struct {
	users     *user.Service
	reminders *reminder.Service
	logger    core.Logger
}

func (j reminderJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	teachers, err := j.users.Filter(ctx, user.QueryFilter{Roles: user.TeacherRoles})
	if err != nil {
		j.logger.Error(fmt.Sprintf("reminder job: querying teachers: %v", err), err)
		return
	}

	now := time.Now()
	for _, t := range teachers {
		res, err := j.reminders.RunForTeacher(ctx, t.ID, now)
		if err != nil {
			j.logger.Error(fmt.Sprintf("reminder job: teacher %s: %v", t.ID, err), err)
			continue
		}
		if res.Processed > 0 || res.Skipped > 0 {
			j.logger.Info(fmt.Sprintf(
				"reminder job: teacher %s: sent=%d failed=%d skipped=%d",
				t.ID, res.Sent, res.Failed, res.Skipped,
			))
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
