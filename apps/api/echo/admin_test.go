package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
	"github.com/mrhat05/Doubtroom/tests"
)

func Test_adminApi_query(t *testing.T) {
	env := setup(t)

	path := func(search, ordering string, isAdmin *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isAdmin != nil {
			if *isAdmin {
				v.Add("is_admin", "true")
			} else {
				v.Add("is_admin", "false")
			}
		}
		return "/api/admin/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now().UTC()
	jane := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.com", testutil.UserOpts{CreatedAt: now.Add(-3 * time.Hour), StarDust: 30})
	john := testutil.CreateUser(t, env.usrRepo, "John", "john@test.com", testutil.UserOpts{CreatedAt: now.Add(-2 * time.Hour), StarDust: 10})
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.com", testutil.UserOpts{IsAdmin: true, CreatedAt: now.Add(-time.Hour)})
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", path: "/api/admin/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/api/admin/users", token: getToken(t, jane),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "get all (newest first)", path: "/api/admin/users", token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, admin, john, jane)},
		{name: "malformed filter", path: "/api/admin/users", token: adminToken, body: []byte(`{"search":`), wantCode: http.StatusBadRequest},
		{name: "search (unknown)", path: path("nobody", "", nil), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t)},
		{name: "search=JOH", path: path("JOH", "", nil), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, john)},
		{name: "is_admin=true", path: path("", "", bPtr(true)), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, admin)},
		{
			name: "order by -star_dust_points", path: path("", "-star_dust_points", bPtr(false)), token: adminToken,
			wantCode: http.StatusOK, wantData: marshallList(t, jane, john),
		},
		{
			name: "order by created_at", path: path("", "created_at", nil), token: adminToken,
			wantCode: http.StatusOK, wantData: marshallList(t, jane, john, admin),
		},
	}
	runHTTPTests(t, env.app, tests)
}

func Test_adminApi_crud(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.com", testutil.UserOpts{IsAdmin: true})
	jane := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.com")
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "retrieve", path: "/api/admin/users/" + jane.ID, token: adminToken, wantCode: http.StatusOK, wantData: marshallObj(t, jane)},
		{
			name: "retrieve (unknown)", path: "/api/admin/users/nope", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "create (invalid)", method: http.MethodPost, path: "/api/admin/users", token: adminToken,
			body:     marshallObj(t, user.NewUser{DisplayName: "Bob", Email: "bob@test.com", Password: "short", PasswordConfirm: "short"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "cannot delete oneself", method: http.MethodDelete, path: "/api/admin/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot demote oneself", method: http.MethodPut, path: "/api/admin/users/" + admin.ID, token: adminToken,
			body: []byte(`{"is_admin": false}`), wantCode: http.StatusForbidden,
		},
	}
	runHTTPTests(t, env.app, tests)

	t.Run("create", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/admin/users", adminToken, marshallObj(t, user.NewUser{
			DisplayName: "Bob", Email: "Bob@Test.com", Password: testPwd, PasswordConfirm: testPwd, EmailVerified: true,
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var bob user.User
		unmarshall(t, rec, &bob)
		assert.Equal(t, "bob@test.com", bob.Email)
		assert.True(t, bob.EmailVerified)
		assert.True(t, bob.Active())
	})

	t.Run("update", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/admin/users/"+jane.ID, adminToken, []byte(`{"display_name": "Jane Doe", "is_active": false}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated user.User
		unmarshall(t, rec, &updated)
		assert.Equal(t, "Jane Doe", updated.DisplayName)
		assert.False(t, updated.Active())

		// deactivated users are locked out
		rec = env.do(http.MethodGet, "/api/auth/me", getToken(t, jane))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/api/admin/users/"+jane.ID, adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := env.usrRepo.GetUser(ctx, user.GetFilter{ID: jane.ID})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("delete multiple", func(t *testing.T) {
		a := testutil.CreateUser(t, env.usrRepo, "A", "a@test.com")
		b := testutil.CreateUser(t, env.usrRepo, "B", "b@test.com")

		rec := env.do(http.MethodDelete, "/api/admin/users?id="+a.ID+"&id="+admin.ID, adminToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(http.MethodDelete, "/api/admin/users?id="+a.ID+"&id="+b.ID, adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		users, err := env.usrRepo.QueryUsers(ctx, &user.QueryFilter{Search: "@test.com"}, nil)
		require.NoError(t, err)
		for _, usr := range users {
			assert.NotContains(t, []string{a.ID, b.ID}, usr.ID)
		}
	})
}
