package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhat05/Doubtroom/core"
)

func TestMakeVerifyToken(t *testing.T) {
	now := time.Now()
	usr := User{
		ID:          "1",
		DisplayName: "T",
		Email:       "t@test.test",
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLogin:   &now,
	}
	usr.SetActive(true)
	require.NoError(t, usr.SetPassword("pwd"))

	validToken, err := MakeToken(usr)
	require.NoError(t, err)

	// generate an expired token
	late := core.Conf.PasswordResetTimeoutDelta + time.Hour
	NowFunc = func() time.Time { return time.Now().Add(-late) }
	expiredToken, err := MakeToken(usr)
	NowFunc = time.Now // reset
	require.NoError(t, err)

	// a new login invalidates previous tokens
	later := now.Add(time.Minute)
	loggedAgain := usr
	loggedAgain.LastLogin = &later

	newEmail := usr
	newEmail.Email = "t2@test.test"

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "no timestamp", usr: usr, token: "-sig", wantErr: errInvalidToken},
		{name: "no signature", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "h%h%-sigsig", wantErr: errInvalidToken},
		{name: "forged signature", usr: usr, token: "k2f1ex-sigsig", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "logged in since", usr: loggedAgain, token: validToken, wantErr: errInvalidToken},
		{name: "email changed", usr: newEmail, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, verifyToken(tt.usr, tt.token))
		})
	}
}

func TestEncodeUID(t *testing.T) {
	usr := User{ID: "5f0bd4a2-7a4c-4a57-a8ef-1d9a1c4c3b0e"}
	uid := EncodeUID(usr)
	id, err := decodeUID(uid)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("%%%")
	assert.Error(t, err)
}
