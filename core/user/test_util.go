package user

import (
	"github.com/mrhat05/Doubtroom/core"
)

// NewServiceMock returns a Service sending its mails synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		dispatch: func(f func()) { f() },
	}
}
