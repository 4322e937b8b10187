// Package session defines the client-side authentication session and where it is persisted.
package session

import (
	"context"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UserData is the denormalized projection of the signed in user kept by clients.
type UserData struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	CollegeName   string `json:"college_name"`
	PhotoURL      string `json:"photo_url"`
	Branch        string `json:"branch"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

type Session struct {
	AuthStatus       bool      `json:"auth_status"`
	UserData         *UserData `json:"user_data"`
	ProfileCompleted bool      `json:"profile_completed"`
	Token            string    `json:"token"`
}

// IsZero reports whether s is the signed out session.
func (s Session) IsZero() bool {
	return !s.AuthStatus && s.UserData == nil && !s.ProfileCompleted && s.Token == ""
}

// Store persists a single Session.
// Read returns the zero Session when nothing was written, or after Clear.
type Store interface {
	Read(ctx context.Context) (Session, error)
	Write(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

func Marshal(s Session) ([]byte, error) {
	return json.Marshal(s)
}

func Unmarshal(data []byte) (Session, error) {
	var s Session
	err := json.Unmarshal(data, &s)
	return s, err
}

func MarshalUserData(ud *UserData) ([]byte, error) {
	return json.Marshal(ud)
}

func UnmarshalUserData(data []byte) (*UserData, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	ud := new(UserData)
	if err := json.Unmarshal(data, ud); err != nil {
		return nil, err
	}
	return ud, nil
}
