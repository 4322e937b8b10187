// Package authclient calls the Doubtroom API on behalf of a client application.
package authclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/core/catalog"
	"github.com/mrhat05/Doubtroom/core/question"
	"github.com/mrhat05/Doubtroom/core/user"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	Client struct {
		baseURL string
		http    *rest.Client

		mu    sync.RWMutex
		token string
	}

	// AuthResponse is returned by signup, login and reload.
	AuthResponse struct {
		Token string         `json:"token"`
		User  user.Principal `json:"user"`
		Stage string         `json:"stage"`
	}

	CatalogResponse struct {
		Roles      []catalog.Choice `json:"roles"`
		Genders    []catalog.Choice `json:"genders"`
		StudyTypes []catalog.Choice `json:"study_types"`
		Branches   []catalog.Choice `json:"branches"`
		Colleges   []catalog.Choice `json:"colleges"`
	}
)

var (
	_ account.Authenticator = (*Client)(nil)
	_ account.ProfileStore  = (*Client)(nil)
)

// New returns a client of the API at baseURL, eg. `http://localhost:5000/api`.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

// SetToken sets the bearer token used by calls that are not given a principal.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends a request and decodes a successful JSON response into out (if not nil).
func (c *Client) do(ctx context.Context, method rest.Method, path, token string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Headers["Content-Type"] = "application/json"
		req.Body = body
	}

	res, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return unavailable(err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return newRemoteError(res.StatusCode, []byte(res.Body))
	}
	if out != nil && res.Body != "" {
		if err = json.UnmarshalFromString(res.Body, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func (c *Client) withPrincipal(resp AuthResponse) user.Principal {
	p := resp.User
	if resp.Token != "" {
		p.Token = resp.Token
		c.SetToken(resp.Token)
	}
	return p
}

// Auth

func (c *Client) Signup(ctx context.Context, nu user.NewUser) (user.Principal, error) {
	var resp AuthResponse
	if err := c.do(ctx, rest.Post, "/auth/signup", "", nil, nu, &resp); err != nil {
		return user.Principal{}, err
	}
	return c.withPrincipal(resp), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (user.Principal, error) {
	var resp AuthResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, rest.Post, "/auth/login", "", nil, in, &resp); err != nil {
		return user.Principal{}, err
	}
	return c.withPrincipal(resp), nil
}

func (c *Client) SendEmailVerification(ctx context.Context, p user.Principal) error {
	return c.do(ctx, rest.Post, "/auth/verify-email/send", p.Token, nil, nil, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, p user.Principal, code string) (user.Principal, error) {
	var resp AuthResponse
	if err := c.do(ctx, rest.Post, "/auth/verify-email", p.Token, nil, map[string]string{"code": code}, &resp); err != nil {
		return user.Principal{}, err
	}
	resp.Token = p.Token
	return c.withPrincipal(resp), nil
}

// Reload fetches a fresh principal, eg. to see whether its email got verified.
func (c *Client) Reload(ctx context.Context, p user.Principal) (user.Principal, error) {
	var resp AuthResponse
	if err := c.do(ctx, rest.Get, "/auth/me", p.Token, nil, nil, &resp); err != nil {
		return user.Principal{}, err
	}
	resp.Token = p.Token
	return c.withPrincipal(resp), nil
}

func (c *Client) Logout(ctx context.Context, p user.Principal) error {
	err := c.do(ctx, rest.Post, "/auth/logout", p.Token, nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, rest.Post, "/auth/password-reset", "", nil, map[string]string{"email": email}, nil)
}

// Profile

// GetUserData returns the profile of the signed in user. uid is only used to check the token's subject.
func (c *Client) GetUserData(ctx context.Context, uid string) (user.Profile, error) {
	var resp struct {
		UID string `json:"uid"`
		user.Profile
	}
	if err := c.do(ctx, rest.Get, "/profile", c.Token(), nil, nil, &resp); err != nil {
		return user.Profile{}, err
	}
	if resp.UID != "" && resp.UID != uid {
		return user.Profile{}, errors.Errorf("profile belongs to %q, not %q", resp.UID, uid)
	}
	return resp.Profile, nil
}

func (c *Client) SaveUserProfile(ctx context.Context, uid string, form user.ProfileForm) (user.Profile, error) {
	var resp struct {
		UID string `json:"uid"`
		user.Profile
	}
	if err := c.do(ctx, rest.Put, "/profile", c.Token(), nil, form, &resp); err != nil {
		return user.Profile{}, err
	}
	if resp.UID != "" && resp.UID != uid {
		return user.Profile{}, errors.Errorf("profile belongs to %q, not %q", resp.UID, uid)
	}
	return resp.Profile, nil
}

// Questions & catalog

func (c *Client) ListQuestions(ctx context.Context, branch string) ([]question.Question, error) {
	var query map[string]string
	if branch != "" {
		query = map[string]string{"branch": branch}
	}
	questions := make([]question.Question, 0)
	err := c.do(ctx, rest.Get, "/questions", c.Token(), query, nil, &questions)
	return questions, err
}

func (c *Client) Catalog(ctx context.Context) (CatalogResponse, error) {
	var resp CatalogResponse
	err := c.do(ctx, rest.Get, "/catalog", "", nil, nil, &resp)
	return resp, err
}
