package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/notif"
	"github.com/annourmah/etudia/core/student"
	"github.com/annourmah/etudia/core/user"
	"github.com/annourmah/etudia/storage/localstore"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		StudentSvc *student.Service
		UserSvc    *user.Service
		Sessions   *user.SessionManager
		Notifs     *notif.Center
		Settings   *localstore.Store
		Validate   *validator.Validate
		Translator ut.Translator

		// ShutdownFn is called when an unrecoverable error is caught.
		ShutdownFn func()
	}

	Server interface {
		http.Handler
		Start()
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
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	shutdown := s.opts.ShutdownFn
	if shutdown == nil {
		shutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, shutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	api.GET("/test", ping) // connectivity probe for mirroring peers

	jwt := jwtAuthMiddleware(conf)

	registerAuthAPI(api, jwt, s.opts)
	registerStudentAPI(api, jwt, s.opts)
	registerExchangeAPI(api, jwt, s.opts)
	registerSettingsAPI(api, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Etudia API!")
}

func ping(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
