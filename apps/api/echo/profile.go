package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core/user"
)

type profileApi struct {
	svc user.Service
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service) {
	api := profileApi{svc: svc}

	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieve)
	pg.PUT("", api.save, verifiedMiddleware(svc))
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	profile, err := api.svc.GetUserData(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting user data")
	}
	return ctx.JSON(http.StatusOK, ProfileResponse{UID: usr.ID, DisplayName: usr.DisplayName, Profile: profile})
}

func (api *profileApi) save(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var form user.ProfileForm
	if err = ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ProfileForm")
	}

	if usr, err = api.svc.SaveProfile(ctx.Request().Context(), usr, form); err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return ctx.JSON(http.StatusOK, ProfileResponse{UID: usr.ID, DisplayName: usr.DisplayName, Profile: usr.Profile})
}
