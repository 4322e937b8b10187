package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhat05/Doubtroom/core/session"
)

// CheckSessionStore checks the behaviour every session.Store shares.
func CheckSessionStore(t *testing.T, st session.Store) {
	ctx := context.Background()

	s, err := st.Read(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsZero(), "empty store reads as signed out")

	want := session.Session{
		AuthStatus: true,
		UserData: &session.UserData{
			UID:           "42",
			Email:         "jane@test.com",
			DisplayName:   "Jane",
			CollegeName:   "Indian Institute of Technology Delhi",
			Branch:        "physics",
			Role:          "student",
			EmailVerified: true,
		},
		ProfileCompleted: true,
		Token:            "tok",
	}
	require.NoError(t, st.Write(ctx, want))
	got, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// last write wins
	want.ProfileCompleted = false
	want.UserData = nil
	require.NoError(t, st.Write(ctx, want))
	got, err = st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, st.Clear(ctx))
	got, err = st.Read(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	// clearing twice is fine
	assert.NoError(t, st.Clear(ctx))
}
