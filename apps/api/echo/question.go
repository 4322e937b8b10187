package echoapi

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/catalog"
	"github.com/mrhat05/Doubtroom/core/question"
	"github.com/mrhat05/Doubtroom/core/user"
)

var photoField = "photo"

type questionApi struct {
	svc     question.Service
	userSvc user.Service
}

func registerQuestionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc question.Service, userSvc user.Service) {
	api := questionApi{svc: svc, userSvc: userSvc}

	qg := g.Group("/questions", jwt)
	qg.GET("", api.query)
	qg.POST("", api.create, verifiedMiddleware(userSvc))
	qg.GET("/topics", api.queryTopics)
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update)
	qg.DELETE("/:id/photo", api.removePhoto)
}

// Handlers

func (api *questionApi) query(ctx echo.Context) error {
	var filter question.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	questions, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []question.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *questionApi) retrieve(ctx echo.Context) error {
	q, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding question by ID")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data question.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	photo, closePhoto, err := formPhoto(ctx)
	if err != nil {
		return err
	}
	defer closePhoto()

	q, err := api.svc.Create(ctx.Request().Context(), usr, data, photo)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *questionApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	data, err := bindUpdateQuestion(ctx)
	if err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	photo, closePhoto, err := formPhoto(ctx)
	if err != nil {
		return err
	}
	defer closePhoto()

	q, err := api.svc.Update(ctx.Request().Context(), usr, ctx.Param("id"), data, photo)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) removePhoto(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q, err := api.svc.RemovePhoto(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "removing question photo")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) queryTopics(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, catalog.TopicSuggestions)
}

// Helpers

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindUpdateQuestion binds only the fields present in the request, leaving the others nil.
func bindUpdateQuestion(ctx echo.Context) (question.UpdateQuestion, error) {
	var data question.UpdateQuestion
	if !isMultipart(ctx) {
		err := ctx.Bind(&data)
		return data, err
	}

	params, err := ctx.FormParams()
	if err != nil {
		return data, err
	}
	value := func(field string) *string {
		if vals, ok := params[field]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	data.Topic = value("topic")
	data.Text = value("text")
	data.Branch = value("branch")
	return data, nil
}

// formPhoto returns the uploaded photo of a multipart request, nil if none was sent.
// The returned func closes the uploaded file.
func formPhoto(ctx echo.Context) (*core.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(ctx) {
		return nil, noop, nil
	}

	fh, err := ctx.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, core.NewValidationError(err, core.FieldError{Field: photoField, Error: "invalid file"})
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*core.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "opening uploaded photo")
	}
	upload := &core.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, nil
}
