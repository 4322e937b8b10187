package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
)

// streakResetSpec runs right after midnight UTC.
var streakResetSpec = "CRON_TZ=UTC 5 0 * * *"

// startJobs schedules the background jobs. The returned cron must be stopped on shutdown.
func startJobs(usrSvc user.Service, logger core.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger})))

	if _, err := c.AddFunc(streakResetSpec, func() { resetBrokenStreaks(usrSvc, logger) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func resetBrokenStreaks(usrSvc user.Service, logger core.Logger) {
	if _, err := usrSvc.ResetBrokenStreaks(context.Background()); err != nil {
		logger.Error("resetting broken streaks", err)
	}
}

// cronLogger adapts a core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(fmt.Sprintf("cron: %s %v", msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s %v", msg, keysAndValues), err)
}
