package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/core/session"
	"github.com/mrhat05/Doubtroom/services/authclient"
	logsvc "github.com/mrhat05/Doubtroom/services/logger"
	filesession "github.com/mrhat05/Doubtroom/storage/session/file"
	redissession "github.com/mrhat05/Doubtroom/storage/session/redis"
)

const requestTimeout = 15 * time.Second

func main() {
	conf := core.Conf
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "CLI : ", log.LstdFlags), conf)

	store, closeStore, err := openSessionStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session store: %v", err), err)
	}

	client := authclient.New(conf.APIBaseURL, requestTimeout)
	machine := account.NewMachine(client, client, store, logger, conf.VerificationPollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cli := commandLine{client: client, machine: machine, out: os.Stdout}
	err = cli.run(ctx, os.Args)

	stop()
	machine.Close()
	closeStore()
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintln(os.Stderr, "error:", errorText(err))
		}
		os.Exit(1)
	}
}

// openSessionStore returns the store selected by `session.driver` and a func releasing it.
func openSessionStore(conf *core.Config) (session.Store, func(), error) {
	switch conf.Session.Driver {
	case "", "file":
		return filesession.NewStore(conf.Session.FilePath()), func() {}, nil
	case "redis":
		rdb := redissession.NewClient(conf)
		return redissession.NewStore(rdb, conf.Session.Key), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, errors.Errorf("unknown session driver %q", conf.Session.Driver)
}
