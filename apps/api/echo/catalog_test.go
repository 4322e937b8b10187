package echoapi_test

import (
	"net/http"
	"testing"

	. "github.com/mrhat05/Doubtroom/apps/api/echo"
	"github.com/mrhat05/Doubtroom/core/catalog"
)

func Test_getCatalog(t *testing.T) {
	env := setup(t)

	tests := []httpTest{
		{
			name: "no auth required", path: "/api/catalog", wantCode: http.StatusOK,
			wantData: marshallObj(t, CatalogResponse{
				Roles:      catalog.Roles,
				Genders:    catalog.Genders,
				StudyTypes: catalog.StudyTypes,
				Branches:   catalog.Branches,
				Colleges:   catalog.Colleges,
			}),
		},
		{name: "trailing slash", path: "/api/catalog/", wantCode: http.StatusOK},
	}
	runHTTPTests(t, env.app, tests)
}
