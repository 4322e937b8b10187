package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
)

var (
	// errors
	ErrNotFound        = fmt.Errorf("user %w", core.ErrNotFound)
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrTooManyAttempts = errors.New("too many wrong codes, request a new one")

	otpDigits      = 6
	maxOTPAttempts = 5
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		// ResetBrokenStreaks zeroes the current streak of users with no activity since `before`.
		ResetBrokenStreaks(ctx context.Context, before time.Time, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error
		Signup(ctx context.Context, nu NewUser) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetUserData(ctx context.Context, id string) (Profile, error)
		SaveProfile(ctx context.Context, usr User, form ProfileForm) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User, oriat int64) (User, error)
		SetRefreshToken(ctx context.Context, usr User, oriat int64) (User, error)
		Logout(ctx context.Context, usr User) error
		SendEmailVerification(ctx context.Context, usr User) error
		VerifyEmail(ctx context.Context, usr User, code string) (User, error)
		RecordActivity(ctx context.Context, usr User, points int) (User, error)
		ResetBrokenStreaks(ctx context.Context) (int, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) (User, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger

		// dispatch runs mail sending. Asynchronous unless mocked.
		dispatch func(func())
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		dispatch: func(f func()) { go f() },
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) newUser(nu NewUser) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		DisplayName:   nu.DisplayName,
		Email:         nu.Email,
		Provider:      ProviderEmail,
		IsAdmin:       nu.IsAdmin,
		EmailVerified: nu.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return usr, nil
}

// Signup creates an unverified account and emails it a verification code.
func (svc *service) Signup(ctx context.Context, nu NewUser) (User, error) {
	nu.IsAdmin = false
	nu.EmailVerified = false
	usr, err := svc.newUser(nu)
	if err != nil {
		return User{}, errors.Wrap(err, "preparing user")
	}
	if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	// the account stays usable, a code can be requested again
	if err = svc.SendEmailVerification(ctx, usr); err != nil {
		svc.logger.Warn("sending email verification failed", err, core.LogPerson{ID: usr.ID, Email: usr.Email})
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: usr.ID})
}

// Create creates an account as is, eg. by an admin.
func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr, err := svc.newUser(nu)
	if err != nil {
		return User{}, errors.Wrap(err, "preparing user")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, CleanOrdering(ordering))
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// GetUserData returns the saved profile of a user, ErrNotFound if none was ever saved.
func (svc *service) GetUserData(ctx context.Context, id string) (Profile, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if !usr.Profile.Exists() {
		return Profile{}, ErrNotFound
	}
	return usr.Profile, nil
}

func (svc *service) SaveProfile(ctx context.Context, usr User, form ProfileForm) (User, error) {
	profile, err := form.Validate(NowFunc())
	if err != nil {
		return User{}, err
	}
	if form.DisplayName != "" {
		usr.DisplayName = form.DisplayName
	}
	usr.Profile = profile
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.DisplayName = uu.DisplayName
	if uu.Email != usr.Email {
		usr.Email = uu.Email
		usr.EmailVerified = false
	}
	if uu.IsActive != nil {
		usr.SetActive(*uu.IsActive)
	}
	if uu.IsAdmin != nil {
		usr.IsAdmin = *uu.IsAdmin
	}
	if uu.EmailVerified != nil {
		usr.EmailVerified = *uu.EmailVerified
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetLastLogin records a login and the `oriat` of the token issued for it.
func (svc *service) SetLastLogin(ctx context.Context, usr User, oriat int64) (User, error) {
	now := NowFunc().UTC()
	usr.LastLogin = &now
	usr.RefreshToken = oriat
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetRefreshToken(ctx context.Context, usr User, oriat int64) (User, error) {
	usr.RefreshToken = oriat
	return svc.repo.UpdateUser(ctx, usr)
}

// Logout forgets the refresh token so that issued tokens can no longer be refreshed.
func (svc *service) Logout(ctx context.Context, usr User) error {
	_, err := svc.SetRefreshToken(ctx, usr, 0)
	return err
}

// SendEmailVerification sets a new verification code and emails it.
func (svc *service) SendEmailVerification(ctx context.Context, usr User) error {
	if usr.EmailVerified {
		return nil
	}
	code, err := newOTPCode()
	if err != nil {
		return errors.Wrap(err, "generating code")
	}
	expiresAt := NowFunc().UTC().Add(core.Conf.EmailVerificationTimeoutDelta)
	usr.OTP = OTP{Code: code, ExpiresAt: &expiresAt}
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "saving code")
	}
	svc.dispatch(func() { svc.sendVerificationMail(usr) })
	return nil
}

func (svc *service) VerifyEmail(ctx context.Context, usr User, code string) (User, error) {
	if usr.EmailVerified {
		return usr, nil
	}
	// attempts are counted on the stored record
	usr, err := svc.GetByID(ctx, usr.ID)
	if err != nil {
		return User{}, err
	}
	if usr.EmailVerified {
		return usr, nil
	}

	code = core.CleanString(code)
	if code == "" || usr.OTP.Code == "" || code != usr.OTP.Code {
		if usr.OTP.Code == "" {
			return User{}, codeError(ErrInvalidCode)
		}
		usr.OTP.Attempts++
		codeErr := ErrInvalidCode
		if usr.OTP.Attempts >= maxOTPAttempts {
			usr.OTP = OTP{}
			codeErr = ErrTooManyAttempts
		}
		if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
			return User{}, errors.Wrap(err, "saving attempt")
		}
		return User{}, codeError(codeErr)
	}
	if usr.OTP.Expired(NowFunc()) {
		return User{}, codeError(ErrCodeExpired)
	}
	usr.EmailVerified = true
	usr.OTP = OTP{}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func codeError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
}

// RecordActivity extends the user's streak and awards star dust points.
func (svc *service) RecordActivity(ctx context.Context, usr User, points int) (User, error) {
	usr.Streak.Touch(NowFunc())
	usr.AddStarDust(points)
	return svc.repo.UpdateUser(ctx, usr)
}

// ResetBrokenStreaks zeroes the streak of users with no activity yesterday or today.
func (svc *service) ResetBrokenStreaks(ctx context.Context) (int, error) {
	yesterday := truncateDay(NowFunc()).AddDate(0, 0, -1)
	cnt, err := svc.repo.ResetBrokenStreaks(ctx, yesterday)
	if err != nil {
		return 0, errors.Wrap(err, "resetting streaks")
	}
	svc.logger.Info(fmt.Sprintf("reset %d broken streak(s)", cnt))
	return cnt, nil
}

// RequestPasswordReset emails a password reset link to the active user owning `email`.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.Active() {
		return ErrNotFound
	}
	token, err := MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.dispatch(func() { svc.sendPasswordResetMail(usr, token) })
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	invalidToken := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	id, err := decodeUID(data.UID)
	if err != nil {
		return User{}, invalidToken
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return User{}, invalidToken
		}
		return User{}, err
	}
	if err = verifyToken(usr, data.Token); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = usr.SetPassword(data.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.RefreshToken = 0
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids)
	return err
}

// Mails

type (
	verificationMailData struct {
		Name      string
		Code      string
		ExpiresIn string
	}

	passwordResetMailData struct {
		Name  string
		UID   string
		Token string
	}
)

func (svc *service) sendVerificationMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName, Address: usr.Email}},
		Subject:      "Verify your email",
		TemplateName: "verify_email",
		TemplateData: verificationMailData{
			Name:      usr.DisplayName,
			Code:      usr.OTP.Code,
			ExpiresIn: core.Conf.EmailVerificationTimeoutDelta.String(),
		},
	})
}

func (svc *service) sendPasswordResetMail(usr User, token string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetMailData{
			Name:  usr.DisplayName,
			UID:   EncodeUID(usr),
			Token: token,
		},
	})
}

// newOTPCode returns a random numeric code of otpDigits digits.
func newOTPCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
