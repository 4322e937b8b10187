package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
)

// addUser updates or creates a verified user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	if err := user.ValidateEmail(email); err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	creating := errors.Is(err, core.ErrNotFound)
	if err != nil && !creating {
		return err
	}
	if creating {
		now := user.NowFunc().UTC()
		usr = user.User{Email: email, Provider: user.ProviderEmail, CreatedAt: now}
	}

	usr.DisplayName = name
	usr.IsAdmin = isAdmin
	usr.EmailVerified = true
	usr.UpdatedAt = user.NowFunc().UTC()
	usr.SetActive(true)
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if creating {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
