package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mrhat05/Doubtroom/core"
)

var (
	resetTokenKeySalt = []byte("doubtroom/password-reset")
	resetTokenEpoch   = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	NowFunc = time.Now // mockable

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID encodes the user's ID for use in a password reset link.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	return string(id), err
}

// MakeToken returns a password reset token `<issued at, base 36>-<signature>`.
// It stops being valid once the user's password, email or last login changes,
// or after PasswordResetTimeoutDelta.
func MakeToken(usr User) (string, error) {
	return signResetToken(usr, int64(NowFunc().Sub(resetTokenEpoch)/time.Second))
}

func verifyToken(usr User, token string) error {
	i := strings.IndexByte(token, '-')
	if i <= 0 {
		return errInvalidToken
	}
	issuedAt, err := strconv.ParseInt(token[:i], 36, 64)
	if err != nil || issuedAt < 0 {
		return errInvalidToken
	}

	want, err := signResetToken(usr, issuedAt)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(token)) {
		return errInvalidToken
	}

	age := NowFunc().Sub(resetTokenEpoch.Add(time.Duration(issuedAt) * time.Second))
	if age > core.Conf.PasswordResetTimeoutDelta {
		return errTokenExpired
	}
	return nil
}

func signResetToken(usr User, issuedAt int64) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, resetTokenKeySalt...), core.Conf.SecretKey...))
	mac := hmac.New(sha256.New, key[:])

	ts := strconv.FormatInt(issuedAt, 36)
	state := []string{usr.ID, usr.Email, string(usr.PasswordHash), ts}
	if usr.LastLogin != nil {
		state = append(state, usr.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	if _, err := mac.Write([]byte(strings.Join(state, "\x00"))); err != nil {
		return "", err
	}
	return ts + "-" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}
