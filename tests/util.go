package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/mrhat05/Doubtroom/core/user"
)

// UserOpts tweaks the user created by CreateUser.
type UserOpts struct {
	Password     string
	IsAdmin      bool
	Inactive     bool
	Unverified   bool
	Profile      *user.Profile
	CreatedAt    time.Time
	StarDust     int
	RefreshToken int64
}

func CreateUser(t *testing.T, repo user.Repository, name, email string, opts ...UserOpts) user.User {
	t.Helper()
	var opt UserOpts
	if len(opts) > 0 {
		opt = opts[0]
	}

	tstamp := time.Now().UTC()
	if !opt.CreatedAt.IsZero() {
		tstamp = opt.CreatedAt.UTC()
	}
	usr := user.User{
		DisplayName:    name,
		Email:          email,
		Provider:       user.ProviderEmail,
		IsAdmin:        opt.IsAdmin,
		EmailVerified:  !opt.Unverified,
		StarDustPoints: opt.StarDust,
		RefreshToken:   opt.RefreshToken,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	usr.SetActive(!opt.Inactive)
	if opt.Profile != nil {
		usr.Profile = *opt.Profile
	}
	if opt.Password != "" {
		if err := usr.SetPassword(opt.Password); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
