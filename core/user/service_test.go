package user_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
	emailsvc "github.com/mrhat05/Doubtroom/services/email"
	logsvc "github.com/mrhat05/Doubtroom/services/logger"
	inmemdb "github.com/mrhat05/Doubtroom/storage/database/inmem"
)

const testPwd = "Sup3r$ecret!"

func setup(t *testing.T) (user.Service, user.Repository) {
	t.Helper()
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.Conf)
	return user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock(), logger), repo
}

func signup(t *testing.T, svc user.Service, name, email string) user.User {
	t.Helper()
	nu := user.NewUser{DisplayName: name, Email: email, Password: testPwd, PasswordConfirm: testPwd}
	require.NoError(t, nu.Validate(context.Background(), svc))
	usr, err := svc.Signup(context.Background(), nu)
	require.NoError(t, err)
	return usr
}

func TestService_SignupAndVerifyEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	usr := signup(t, svc, " Jane  Doe ", "Jane.Verify@Test.com")
	assert.Equal(t, "Jane Doe", usr.DisplayName)
	assert.Equal(t, "jane.verify@test.com", usr.Email)
	assert.False(t, usr.EmailVerified)
	assert.False(t, usr.IsAdmin)
	assert.Len(t, usr.OTP.Code, 6)

	msg, ok := emailsvc.LastMessageTo(usr.Email)
	require.True(t, ok)
	assert.Contains(t, msg.TextContent, usr.OTP.Code)

	// duplicate email
	nu := user.NewUser{DisplayName: "Other", Email: "jane.verify@test.com", Password: testPwd, PasswordConfirm: testPwd}
	err := nu.Validate(ctx, svc)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	_, ok = vErr.FieldMessage("email")
	assert.True(t, ok)

	// wrong code
	_, err = svc.VerifyEmail(ctx, usr, "000000x")
	assert.True(t, errors.Is(err, user.ErrInvalidCode))

	// expired code
	user.NowFunc = func() time.Time { return time.Now().Add(core.Conf.EmailVerificationTimeoutDelta + time.Minute) }
	_, err = svc.VerifyEmail(ctx, usr, usr.OTP.Code)
	user.NowFunc = time.Now
	assert.True(t, errors.Is(err, user.ErrCodeExpired))

	verified, err := svc.VerifyEmail(ctx, usr, " "+usr.OTP.Code+" ")
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.Empty(t, verified.OTP.Code)

	// no new code once verified
	require.NoError(t, svc.SendEmailVerification(ctx, verified))
	fresh, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.OTP.Code)
}

func TestService_GetUserDataAndSaveProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	usr := signup(t, svc, "Prof", "prof@test.com")

	_, err := svc.GetUserData(ctx, usr.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = svc.GetUserData(ctx, "unknown")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	form := user.ProfileForm{
		DisplayName: "Prof X",
		Role:        user.RoleFaculty,
		CollegeName: "iit_bombay",
		Branch:      "physics",
		Gender:      "male",
		DOB:         "1970-01-01",
	}
	usr, err = svc.SaveProfile(ctx, usr, form)
	require.NoError(t, err)
	assert.Equal(t, "Prof X", usr.DisplayName)

	p, err := svc.GetUserData(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, p.ProfileCompleted)
	assert.Equal(t, "Indian Institute of Technology Bombay", p.CollegeName)

	_, err = svc.SaveProfile(ctx, usr, user.ProfileForm{Role: user.RoleStudent})
	assert.True(t, errors.Is(err, core.ErrMissingField))
}

func TestService_RecordActivityAndResetStreaks(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	active := signup(t, svc, "Active", "active@test.com")
	idle := signup(t, svc, "Idle", "idle@test.com")

	threeDaysAgo := time.Now().AddDate(0, 0, -3)
	user.NowFunc = func() time.Time { return threeDaysAgo }
	idle, err := svc.RecordActivity(ctx, idle, 10)
	user.NowFunc = time.Now
	require.NoError(t, err)
	assert.Equal(t, 1, idle.Streak.Current)

	active, err = svc.RecordActivity(ctx, active, 10)
	require.NoError(t, err)
	active, err = svc.RecordActivity(ctx, active, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, active.StarDustPoints)
	assert.Equal(t, 1, active.Streak.Current)

	cnt, err := svc.ResetBrokenStreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	idle, err = svc.GetByID(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, idle.Streak.Current)
	assert.Equal(t, 1, idle.Streak.Longest)
	assert.Equal(t, 10, idle.StarDustPoints)
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	usr := signup(t, svc, "Reset", "reset@test.com")
	usr, err := svc.SetLastLogin(ctx, usr, 42)
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.RequestPasswordReset(ctx, "nobody@test.com"), core.ErrNotFound))
	require.NoError(t, svc.RequestPasswordReset(ctx, " RESET@test.com "))

	token, err := user.MakeToken(usr)
	require.NoError(t, err)
	newPwd := "An0ther#Secret"

	_, err = svc.ResetPassword(ctx, user.ResetUserPassword{Token: "bad-token", UID: user.EncodeUID(usr), Password: newPwd, PasswordConfirm: newPwd})
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	usr, err = svc.ResetPassword(ctx, user.ResetUserPassword{Token: token, UID: user.EncodeUID(usr), Password: newPwd, PasswordConfirm: newPwd})
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(newPwd))
	assert.Zero(t, usr.RefreshToken)

	// the token is single use: the password hash changed
	_, err = svc.ResetPassword(ctx, user.ResetUserPassword{Token: token, UID: user.EncodeUID(usr), Password: testPwd, PasswordConfirm: testPwd})
	assert.Error(t, err)
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	usr := signup(t, svc, "Logout", "logout@test.com")

	usr, err := svc.SetLastLogin(ctx, usr, 1234)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), usr.RefreshToken)
	assert.NotNil(t, usr.LastLogin)

	require.NoError(t, svc.Logout(ctx, usr))
	usr, err = svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Zero(t, usr.RefreshToken)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	now := time.Now().UTC()
	for i, email := range []string{"b@test.com", "a@test.com", "c@test.com"} {
		usr := user.User{DisplayName: email, Email: email, CreatedAt: now.Add(time.Duration(i) * time.Hour)}
		usr.SetActive(i != 2)
		_, err := repo.CreateUser(ctx, usr)
		require.NoError(t, err)
	}

	users, err := svc.Query(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "c@test.com", users[0].Email) // newest first

	users, err = svc.Query(ctx, nil, []core.DBOrdering{{Field: "email", Ascending: true}, {Field: "lol"}})
	require.NoError(t, err)
	assert.Equal(t, "a@test.com", users[0].Email)

	inactive := false
	users, err = svc.Query(ctx, &user.QueryFilter{IsActive: &inactive}, nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "c@test.com", users[0].Email)

	require.NoError(t, svc.Delete(ctx, users[0].ID))
	_, err = svc.GetByEmail(ctx, "c@test.com")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_VerifyEmail_attemptsLimit(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	usr := signup(t, svc, "Jane", "jane.attempts@test.com")
	code := usr.OTP.Code

	for i := 1; i < 5; i++ {
		_, err := svc.VerifyEmail(ctx, usr, "999999x")
		require.True(t, errors.Is(err, user.ErrInvalidCode), "attempt %d: %v", i, err)
	}
	stored, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, stored.OTP.Attempts)
	assert.Equal(t, code, stored.OTP.Code)

	_, err = svc.VerifyEmail(ctx, usr, "999999x")
	assert.True(t, errors.Is(err, user.ErrTooManyAttempts))

	_, err = svc.VerifyEmail(ctx, usr, code)
	assert.True(t, errors.Is(err, user.ErrInvalidCode), "the code was revoked")
	stored, err = repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
	assert.Empty(t, stored.OTP.Code)

	// a new code starts over
	require.NoError(t, svc.SendEmailVerification(ctx, stored))
	stored, err = repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Zero(t, stored.OTP.Attempts)
	verified, err := svc.VerifyEmail(ctx, usr, stored.OTP.Code)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
}

// brokenUpdates fails every update.
type brokenUpdates struct {
	user.Repository
}

func (brokenUpdates) UpdateUser(context.Context, user.User, ...core.DBExecutor) (user.User, error) {
	return user.User{}, errors.New("db down")
}

func TestService_Signup_sendFailure(t *testing.T) {
	ctx := context.Background()
	repo := brokenUpdates{inmemdb.NewUserRepository(inmemdb.Open())}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.Conf)
	svc := user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock(), logger)

	nu := user.NewUser{DisplayName: "Jane", Email: "jane.nomail@test.com", Password: testPwd, PasswordConfirm: testPwd}
	usr, err := svc.Signup(ctx, nu)
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.False(t, usr.EmailVerified)
	assert.Empty(t, usr.OTP.Code)

	_, err = svc.GetByEmail(ctx, nu.Email)
	assert.NoError(t, err, "the account is kept")
}
