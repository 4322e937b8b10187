package account

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/session"
	"github.com/mrhat05/Doubtroom/core/user"
)

var NowFunc = time.Now // mockable

const subscriberBuffer = 8

// Machine is the account state of a single client. It is safe for concurrent use.
type Machine struct {
	auth     Authenticator
	profiles ProfileStore
	store    session.Store
	logger   core.Logger
	interval time.Duration

	mu        sync.Mutex
	stage     Stage
	principal user.Principal
	profile   user.Profile
	subs      []chan Stage
	poll      *poller
	closed    bool
}

func NewMachine(auth Authenticator, profiles ProfileStore, store session.Store, logger core.Logger, pollInterval time.Duration) *Machine {
	if pollInterval <= 0 {
		pollInterval = core.Conf.VerificationPollInterval
	}
	return &Machine{
		auth:     auth,
		profiles: profiles,
		store:    store,
		logger:   logger,
		interval: pollInterval,
	}
}

func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

func (m *Machine) Principal() user.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.principal
}

func (m *Machine) Profile() user.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// Subscribe returns a channel receiving every stage change until Close.
// Changes are dropped for a subscriber whose buffer is full.
func (m *Machine) Subscribe() <-chan Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Stage, subscriberBuffer)
	if m.closed {
		close(ch)
		return ch
	}
	m.subs = append(m.subs, ch)
	return ch
}

// Login signs in from the Unauthenticated stage.
// Credentials are validated locally first and never sent when invalid.
func (m *Machine) Login(ctx context.Context, email, password string) (Stage, error) {
	email = core.CleanString(email, true /* lower */)
	if err := user.ValidateLogin(email, password); err != nil {
		return m.Stage(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.stage != Unauthenticated {
		return m.stage, ErrInvalidTransition
	}

	p, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return m.stage, err
	}

	var profile user.Profile
	if p.EmailVerified {
		if profile, err = m.profiles.GetUserData(ctx, p.UID); err != nil && !errors.Is(err, core.ErrNotFound) {
			return m.stage, errors.Wrap(err, "getting user data")
		}
	} else if err = m.auth.SendEmailVerification(ctx, p); err != nil {
		// the client can still ask for a new code once waiting
		m.logger.Warn("sending email verification", err, logPerson(p))
	}

	m.principal, m.profile = p, profile
	if err = m.saveSession(ctx); err != nil {
		m.principal, m.profile = user.Principal{}, user.Profile{}
		return m.stage, err
	}
	m.setStage(StageOf(profile, p.EmailVerified))
	return m.stage, nil
}

// ResendVerification sends a new verification code while waiting for the email to be verified.
func (m *Machine) ResendVerification(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != AwaitingEmailVerification {
		return ErrInvalidTransition
	}
	return m.auth.SendEmailVerification(ctx, m.principal)
}

// CompleteProfile saves the profile form. Profile edits are allowed once complete and keep the stage.
func (m *Machine) CompleteProfile(ctx context.Context, form user.ProfileForm) (user.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != ProfileIncomplete && m.stage != ProfileComplete {
		return user.Profile{}, ErrInvalidTransition
	}
	if _, err := form.Validate(NowFunc()); err != nil {
		return user.Profile{}, err
	}

	profile, err := m.profiles.SaveUserProfile(ctx, m.principal.UID, form)
	if err != nil {
		return user.Profile{}, err
	}
	if form.DisplayName != "" {
		m.principal.DisplayName = form.DisplayName
	}
	m.profile = profile
	if err = m.saveSession(ctx); err != nil {
		return user.Profile{}, err
	}
	if m.stage == ProfileIncomplete {
		m.setStage(StageOf(profile, true))
	}
	return profile, nil
}

// Logout returns to Unauthenticated from any stage and clears the session.
func (m *Machine) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopPoll()
	if lo, ok := m.auth.(loggerOut); ok && m.stage != Unauthenticated {
		if err := lo.Logout(ctx, m.principal); err != nil {
			m.logger.Warn("revoking token", err, logPerson(m.principal))
		}
	}
	m.principal, m.profile = user.Principal{}, user.Profile{}
	err := m.store.Clear(ctx)
	m.setStage(Unauthenticated)
	return errors.Wrap(err, "clearing session")
}

// Restore rehydrates the stage from the persisted session.
func (m *Machine) Restore(ctx context.Context) (Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.stage != Unauthenticated {
		return m.stage, ErrInvalidTransition
	}

	s, err := m.store.Read(ctx)
	if err != nil {
		return m.stage, errors.Wrap(err, "reading session")
	}
	if !s.AuthStatus || s.UserData == nil {
		return m.stage, nil
	}

	ud := s.UserData
	m.principal = user.Principal{
		UID:           ud.UID,
		Email:         ud.Email,
		DisplayName:   ud.DisplayName,
		PhotoURL:      ud.PhotoURL,
		EmailVerified: ud.EmailVerified,
		Token:         s.Token,
	}
	m.profile = user.Profile{Role: ud.Role, CollegeName: ud.CollegeName, Branch: ud.Branch}
	m.profile.ProfileCompleted = s.ProfileCompleted

	switch {
	case !ud.EmailVerified:
		m.setStage(AwaitingEmailVerification)
	case s.ProfileCompleted:
		m.setStage(ProfileComplete)
	default:
		m.setStage(ProfileIncomplete)
	}
	return m.stage, nil
}

// Close stops the verification poll and closes subscriber channels. The machine is unusable afterwards.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	poll := m.poll
	m.stopPoll()
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
	m.mu.Unlock()

	if poll != nil {
		poll.wait()
	}
}

// setStage records a stage change, starting or stopping the verification poll. Callers hold mu.
func (m *Machine) setStage(s Stage) {
	if s != AwaitingEmailVerification {
		m.stopPoll()
	} else if m.poll == nil && !m.closed {
		m.poll = startPoller(m, m.principal, m.interval)
	}
	if s == m.stage {
		return
	}
	m.stage = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (m *Machine) stopPoll() {
	if m.poll != nil {
		m.poll.stop()
		m.poll = nil
	}
}

// verified is called by the poll once the backend reports the email as verified.
func (m *Machine) verified(ctx context.Context, poll *poller, p user.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.poll != poll || ctx.Err() != nil || m.stage != AwaitingEmailVerification {
		return // logged out or closed meanwhile
	}
	m.stopPoll()

	p.Token = m.principal.Token
	m.principal = p
	if err := m.saveSession(context.Background()); err != nil {
		m.logger.Error("saving session", err, logPerson(p))
	}
	m.setStage(ProfileIncomplete)
}

func (m *Machine) saveSession(ctx context.Context) error {
	p, profile := m.principal, m.profile
	s := session.Session{
		AuthStatus: true,
		UserData: &session.UserData{
			UID:           p.UID,
			Email:         p.Email,
			DisplayName:   p.DisplayName,
			CollegeName:   profile.CollegeName,
			PhotoURL:      p.PhotoURL,
			Branch:        profile.Branch,
			Role:          profile.Role,
			EmailVerified: p.EmailVerified,
		},
		ProfileCompleted: p.EmailVerified && profile.IsComplete(),
		Token:            p.Token,
	}
	return errors.Wrap(m.store.Write(ctx, s), "writing session")
}

func logPerson(p user.Principal) core.LogPerson {
	return core.LogPerson{ID: p.UID, Username: p.DisplayName, Email: p.Email}
}
