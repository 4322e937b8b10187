// Package echoapi serves the Doubtroom HTTP API with echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/question"
	"github.com/mrhat05/Doubtroom/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		AllowedOrigins []string
		MediaDir       string // served under /media when set
		Shutdown       chan os.Signal
		Logger         core.Logger
		UserSvc        user.Service
		QuestionSvc    question.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions,
		},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	if s.opts.MediaDir != "" {
		s.app.Static("/media", s.opts.MediaDir)
	}

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(api, jwt, s.opts.UserSvc)
	registerProfileAPI(api, jwt, s.opts.UserSvc)
	registerQuestionAPI(api, jwt, s.opts.QuestionSvc, s.opts.UserSvc)
	registerCatalogAPI(api)
	registerAdminAPI(api, jwt, s.opts.UserSvc)
}

func (s *server) signalShutdown() {
	if s.opts.Shutdown == nil {
		return
	}
	select {
	case s.opts.Shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
