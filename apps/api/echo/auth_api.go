package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/core/user"
)

type authApi struct {
	svc user.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login`, `/password-reset` & `/password-reset-confirm`
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	jg := ag.Group("", jwt)
	jg.GET("/me", api.me)
	jg.POST("/verify-email/send", api.sendEmailVerification)
	jg.POST("/verify-email", api.verifyEmail)
	jg.POST("/token-refresh", api.refreshToken)
	jg.POST("/logout", api.logout)
}

func newAuthResponse(usr user.User, token string) AuthResponse {
	return AuthResponse{
		Token: token,
		User:  usr.Principal(""),
		Stage: account.StageOf(usr.Profile, usr.EmailVerified).String(),
	}
}

// Handlers

func (api *authApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}

	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	if usr, err = api.svc.SetLastLogin(ctx.Request().Context(), usr, claims.OrigIssuedAt); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}
	return ctx.JSON(http.StatusCreated, newAuthResponse(usr, token))
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Clean()
	if err := user.ValidateLogin(data.Email, data.Password); err != nil {
		return err
	}

	usr, claims, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, newAuthResponse(usr, token))
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, newAuthResponse(usr, ""))
}

func (api *authApi) sendEmailVerification(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.EmailVerified {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email already verified"})
	}
	if err = api.svc.SendEmailVerification(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "sending email verification")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "A verification code has been sent to " + usr.Email + "."})
}

func (api *authApi) verifyEmail(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data VerifyEmailRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyEmailRequest")
	}

	if usr, err = api.svc.VerifyEmail(ctx.Request().Context(), usr, data.Code); err != nil {
		return errors.Wrap(err, "verifying email")
	}
	return ctx.JSON(http.StatusOK, newAuthResponse(usr, ""))
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) logout(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Logout(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !errors.Is(err, core.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
