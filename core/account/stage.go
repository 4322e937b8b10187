// Package account drives a client through signing in, verifying its email and completing its profile.
package account

import (
	"context"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
)

type Stage int

const (
	Unauthenticated Stage = iota
	AwaitingEmailVerification
	ProfileIncomplete
	ProfileComplete
)

var ErrInvalidTransition = core.ErrInvalidTransition

func (s Stage) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AwaitingEmailVerification:
		return "awaiting_email_verification"
	case ProfileIncomplete:
		return "profile_incomplete"
	case ProfileComplete:
		return "profile_complete"
	}
	return "unknown"
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StageOf returns the stage of a signed in user.
// An unverified user is awaiting verification whatever its profile.
func StageOf(profile user.Profile, emailVerified bool) Stage {
	switch {
	case !emailVerified:
		return AwaitingEmailVerification
	case profile.IsComplete():
		return ProfileComplete
	}
	return ProfileIncomplete
}

type (
	// Authenticator signs users in against the backend.
	Authenticator interface {
		Login(ctx context.Context, email, password string) (user.Principal, error)
		SendEmailVerification(ctx context.Context, p user.Principal) error
		Reload(ctx context.Context, p user.Principal) (user.Principal, error)
	}

	// ProfileStore reads and writes user profiles. GetUserData fails with core.ErrNotFound
	// when no profile was ever saved.
	ProfileStore interface {
		GetUserData(ctx context.Context, uid string) (user.Profile, error)
		SaveUserProfile(ctx context.Context, uid string, form user.ProfileForm) (user.Profile, error)
	}

	// loggerOut is implemented by authenticators able to revoke their token server side.
	loggerOut interface {
		Logout(ctx context.Context, p user.Principal) error
	}
)
