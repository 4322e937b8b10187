package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/mrhat05/Doubtroom/apps/api/echo"
	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/question"
	"github.com/mrhat05/Doubtroom/core/user"
	emailsvc "github.com/mrhat05/Doubtroom/services/email"
	logsvc "github.com/mrhat05/Doubtroom/services/logger"
	storagesvc "github.com/mrhat05/Doubtroom/services/storage"
	"github.com/mrhat05/Doubtroom/storage/database"
	inmemdb "github.com/mrhat05/Doubtroom/storage/database/inmem"
	sqlxrepos "github.com/mrhat05/Doubtroom/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	usrRepo, qRepo, closeDB, err := setUpRepos(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer closeDB()

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	assets, err := storagesvc.New(conf.Storage)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	usrSvc := user.NewService(usrRepo, mailSvc, logger)
	questionSvc := question.NewService(qRepo, assets, usrSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	jobs, err := startJobs(usrSvc, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
	}
	defer jobs.Stop()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	opts := &echoapi.Options{
		Address:        conf.Server.Address,
		AllowedOrigins: conf.Server.AllowedOrigins,
		Shutdown:       shutdown,
		Logger:         logger,
		UserSvc:        usrSvc,
		QuestionSvc:    questionSvc,
	}
	if conf.Storage.Driver == storagesvc.DriverDisk || conf.Storage.Driver == "" {
		opts.MediaDir = conf.Storage.MediaDir
	}
	server := echoapi.NewServer(opts)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

// setUpRepos opens the configured database: postgres (created & migrated if needed) or memory.
func setUpRepos(conf *core.Config) (user.Repository, question.Repository, func(), error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return inmemdb.NewUserRepository(db), inmemdb.NewQuestionRepository(db), func() {}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Printf("closing database: %v", err)
		}
	}
	return sqlxrepos.NewUserRepository(db), sqlxrepos.NewQuestionRepository(db), closeDB, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
