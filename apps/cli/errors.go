package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/services/authclient"
)

var (
	errHelp        = errors.New("help provided")
	errWaitTimeout = errors.New("still waiting for the email to be verified")
)

// errorText is what the user sees for err: field messages, the server's own text or `unknown-error`.
func errorText(err error) string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		lines := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			lines = append(lines, f.Field+": "+f.Error)
		}
		return strings.Join(lines, "\n")
	}

	var rErr *authclient.RemoteError
	switch {
	case errors.As(err, &rErr):
		return rErr.Code
	case errors.Is(err, account.ErrInvalidTransition):
		return "not allowed right now, see `status`"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return err.Error()
}
