package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mrhat05/Doubtroom/apps/api/echo"
	"github.com/mrhat05/Doubtroom/core/user"
	emailsvc "github.com/mrhat05/Doubtroom/services/email"
	"github.com/mrhat05/Doubtroom/tests"
)

func completeProfile() *user.Profile {
	return &user.Profile{
		Role:             user.RoleStudent,
		CollegeName:      "Indian Institute of Technology Delhi",
		Branch:           "computer_science_engineering",
		StudyType:        "btech",
		Gender:           "female",
		ProfileCompleted: true,
	}
}

func Test_authApi_signup(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Taken", "taken@test.com")

	body := func(name, email, pwd, confirm string) []byte {
		return marshallObj(t, user.NewUser{DisplayName: name, Email: email, Password: pwd, PasswordConfirm: confirm})
	}

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/signup", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"display_name":     "this field is required",
				"email":            "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			}),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/api/auth/signup",
			body:     body("Jane", "Taken@test.com", testPwd, testPwd),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	}
	runHTTPTests(t, env.app, tests)

	t.Run("success", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/signup", "", body(" Jane Doe ", "Jane@Test.com", testPwd, testPwd))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp AuthResponse
		unmarshall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "awaiting_email_verification", resp.Stage)
		assert.Equal(t, "jane@test.com", resp.User.Email)
		assert.Equal(t, "Jane Doe", resp.User.DisplayName)
		assert.False(t, resp.User.EmailVerified)
		assert.Empty(t, resp.User.Token)

		_, sent := emailsvc.LastMessageTo("jane@test.com")
		assert.True(t, sent)
	})
}

func Test_authApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Unverified", "unverified@test.com", testutil.UserOpts{Password: testPwd, Unverified: true})
	testutil.CreateUser(t, env.usrRepo, "Incomplete", "incomplete@test.com", testutil.UserOpts{Password: testPwd})
	testutil.CreateUser(t, env.usrRepo, "Complete", "complete@test.com", testutil.UserOpts{Password: testPwd, Profile: completeProfile()})
	testutil.CreateUser(t, env.usrRepo, "Inactive", "inactive@test.com", testutil.UserOpts{Password: testPwd, Inactive: true})

	body := func(email, pwd string) []byte {
		return marshallObj(t, LoginRequest{Email: email, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "invalid input", method: http.MethodPost, path: "/api/auth/login", body: body("nope", ""),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "Email is invalid", "password": "Password is required"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/auth/login", body: body("ghost@test.com", testPwd),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login", body: body("complete@test.com", "wrong"),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive", method: http.MethodPost, path: "/api/auth/login", body: body("inactive@test.com", testPwd),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, env.app, tests)

	stages := []struct {
		email     string
		wantStage string
	}{
		{email: "unverified@test.com", wantStage: "awaiting_email_verification"},
		{email: " Incomplete@Test.com ", wantStage: "profile_incomplete"},
		{email: "complete@test.com", wantStage: "profile_complete"},
	}
	for _, tt := range stages {
		t.Run(tt.wantStage, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/auth/login", "", body(tt.email, testPwd))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp AuthResponse
			unmarshall(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, tt.wantStage, resp.Stage)

			usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: resp.User.UID})
			require.NoError(t, err)
			assert.NotNil(t, usr.LastLogin)
			assert.NotZero(t, usr.RefreshToken)
		})
	}
}

func Test_authApi_verifyEmail(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	rec := env.do(http.MethodPost, "/api/auth/signup", "", marshallObj(t, user.NewUser{
		DisplayName: "Jane", Email: "verify@test.com", Password: testPwd, PasswordConfirm: testPwd,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var signedUp AuthResponse
	unmarshall(t, rec, &signedUp)
	token := signedUp.Token

	// resend
	rec = env.do(http.MethodPost, "/api/auth/verify-email/send", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	usr, err := env.usrRepo.GetUser(ctx, user.GetFilter{Email: "verify@test.com"})
	require.NoError(t, err)
	require.NotEmpty(t, usr.OTP.Code)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/auth/verify-email", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "wrong code", method: http.MethodPost, path: "/api/auth/verify-email", token: token,
			body:     marshallObj(t, VerifyEmailRequest{Code: "x"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"code": user.ErrInvalidCode.Error()}),
		},
	}
	runHTTPTests(t, env.app, tests)

	// reload still awaiting
	rec = env.do(http.MethodGet, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me AuthResponse
	unmarshall(t, rec, &me)
	assert.Equal(t, "awaiting_email_verification", me.Stage)
	assert.False(t, me.User.EmailVerified)

	rec = env.do(http.MethodPost, "/api/auth/verify-email", token, marshallObj(t, VerifyEmailRequest{Code: usr.OTP.Code}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified AuthResponse
	unmarshall(t, rec, &verified)
	assert.True(t, verified.User.EmailVerified)
	assert.Equal(t, "profile_incomplete", verified.Stage)

	// reload sees the verification
	rec = env.do(http.MethodGet, "/api/auth/me", token)
	unmarshall(t, rec, &me)
	assert.True(t, me.User.EmailVerified)

	// nothing left to send
	rec = env.do(http.MethodPost, "/api/auth/verify-email/send", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_authApi_tokenRefreshAndLogout(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.com", testutil.UserOpts{Password: testPwd})
	stranger := testutil.CreateUser(t, env.usrRepo, "Stranger", "stranger@test.com")

	rec := env.do(http.MethodPost, "/api/auth/login", "", marshallObj(t, LoginRequest{Email: "jane@test.com", Password: testPwd}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login AuthResponse
	unmarshall(t, rec, &login)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "never logged in", method: http.MethodPost, path: "/api/auth/token-refresh", token: getToken(t, stranger),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "token has been revoked"}),
		},
	}
	runHTTPTests(t, env.app, tests)

	rec = env.do(http.MethodPost, "/api/auth/token-refresh", login.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed LoginResponse
	unmarshall(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.Token)

	rec = env.do(http.MethodPost, "/api/auth/logout", login.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/token-refresh", refreshed.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_authApi_passwordReset(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Jane", "reset@test.com", testutil.UserOpts{Password: testPwd})

	success := marshallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	tests := []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/api/auth/password-reset",
			body:     marshallObj(t, PasswordResetRequest{Email: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"email": "Email is invalid"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/password-reset",
			body: marshallObj(t, PasswordResetRequest{Email: "ghost@test.com"}), wantCode: http.StatusOK, wantData: success,
		},
		{
			name: "known email", method: http.MethodPost, path: "/api/auth/password-reset",
			body: marshallObj(t, PasswordResetRequest{Email: "Reset@Test.com"}), wantCode: http.StatusOK, wantData: success,
		},
		{
			name: "confirm with a bad token", method: http.MethodPost, path: "/api/auth/password-reset-confirm",
			body: marshallObj(t, user.ResetUserPassword{
				Token: "bad", UID: "bad", Password: "N3w$ecret!!", PasswordConfirm: "N3w$ecret!!",
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, env.app, tests)

	msg, ok := emailsvc.LastMessageTo("reset@test.com")
	require.True(t, ok)
	assert.Equal(t, "password_reset", msg.TemplateName)
}
