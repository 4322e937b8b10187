package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errEmailNotVerified     = echo.NewHTTPError(http.StatusForbidden, "email not verified")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errTokenRevoked         = echo.NewHTTPError(http.StatusForbidden, "token has been revoked")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// errorResponse maps err to a status code and a JSON body: a {field: message} map or a message string.
func errorResponse(err error) (int, interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
			origErr = herr
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		flds := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			flds[vErr.Field()] = vErr.Translate(core.Translator)
		}
		return http.StatusBadRequest, flds
	case *core.ValidationError:
		if len(origErr.Fields) == 0 {
			return http.StatusBadRequest, origErr.Error()
		}
		flds := make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			flds[fErr.Field] = fErr.Error
		}
		return http.StatusBadRequest, flds
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errors.Cause(err).Error()
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, errors.Cause(err).Error()
	case errors.Is(err, core.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Server errors are logged with the user concerned; signalShutdown is called on a core.shutdown error.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := errorResponse(err)

		switch code {
		case http.StatusServiceUnavailable:
			logger.Warn(http.StatusText(code), err)
		case http.StatusInternalServerError:
			args := []interface{}{errors.Wrap(err, http.StatusText(code))}
			if p, ok := contextLogPerson(ctx); ok {
				args = append(args, p)
			}
			logger.Error(http.StatusText(code), args...)

			if core.IsShutdown(err) {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				message = err.Error()
			}
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
