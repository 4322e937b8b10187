package authclient

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/mrhat05/Doubtroom/core"
)

const unknownError = "unknown-error"

// RemoteError is a failed response from the Doubtroom API.
type RemoteError struct {
	Status int
	Code   string // the server's error text, unknownError when it gave none
}

func (e *RemoteError) Error() string {
	return e.Code
}

// Unwrap maps the status to the matching core error.
func (e *RemoteError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return core.ErrNotFound
	case e.Status == http.StatusForbidden:
		return core.ErrForbidden
	case e.Status == 0, e.Status >= http.StatusInternalServerError:
		return core.ErrRemoteUnavailable
	}
	return nil
}

// newRemoteError decodes an error body: `{"error": "..."}` or `{field: message}`.
// Field errors are returned as a *core.ValidationError wrapping the RemoteError.
func newRemoteError(status int, body []byte) error {
	rErr := &RemoteError{Status: status, Code: unknownError}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return rErr
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		rErr.Code = msg
		return rErr
	}
	if msg, ok := payload["message"].(string); ok && msg != "" { // echo's default error body
		rErr.Code = msg
		return rErr
	}

	flds := make([]core.FieldError, 0, len(payload))
	for field, msg := range payload {
		flds = append(flds, core.FieldError{Field: field, Error: fmt.Sprint(msg)})
	}
	sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
	rErr.Code = flds[0].Field + ": " + flds[0].Error
	return core.NewValidationError(rErr, flds...)
}

func unavailable(err error) error {
	return &RemoteError{Code: fmt.Sprintf("%v: %v", core.ErrRemoteUnavailable, err)}
}
