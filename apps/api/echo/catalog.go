package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrhat05/Doubtroom/core/catalog"
)

func registerCatalogAPI(g *echo.Group) {
	g.GET("/catalog", getCatalog)
}

func getCatalog(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, CatalogResponse{
		Roles:      catalog.Roles,
		Genders:    catalog.Genders,
		StudyTypes: catalog.StudyTypes,
		Branches:   catalog.Branches,
		Colleges:   catalog.Colleges,
	})
}
