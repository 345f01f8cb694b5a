package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mi-raf/comment-moderation/internal/models"
)

type (
	API struct {
		e               *echo.Echo
		s               *http.Server
		listen          string
		shutdownTimeout time.Duration
		ctx             context.Context
	}

	Config struct {
		Listen          string
		ShutdownTimeout time.Duration
	}

	requestValidator struct {
		v *validator.Validate
	}
)

func NewApi(ctx context.Context, c *Config, res *Resolver) *API {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
	e.HTTPErrorHandler = errorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// request metrics live in a per-server registry, domain metrics in the default one
	reg := prometheus.NewRegistry()
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "comments",
		Registerer: reg,
	}))

	e.GET("/healthcheck", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(prometheus.Gatherers{reg, prometheus.DefaultGatherer}, promhttp.HandlerOpts{})))
	res.Register(e)

	server := &http.Server{
		Addr:    c.Listen,
		Handler: logMiddleware(e),
	}
	timeout := c.ShutdownTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &API{
		e:               e,
		s:               server,
		listen:          c.Listen,
		shutdownTimeout: timeout,
		ctx:             ctx,
	}
}

func (a *API) Handler() http.Handler {
	return a.s.Handler
}

func (a *API) Start() error {
	log.Debug().Msgf("listening on %v", a.listen)
	err := a.s.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *API) Close() {
	log.Debug().Msg("start graceful server shutdown")
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), a.shutdownTimeout)
	defer cancel()
	err := a.s.Shutdown(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error while shutdowning server")
		return
	}
	log.Debug().Msg("server graceful shutdowned")
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.v.Struct(i); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return nil
}

func statusOf(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, models.ErrCommentBlocked):
		return http.StatusForbidden, "Comment blocked due to inappropriate language."
	case errors.Is(err, models.ErrPostNotFound):
		return http.StatusNotFound, "Post not found"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "Not authorized"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, models.ErrInvalidRange),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrUserExists):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("error in response")
	} else {
		log.Debug().Err(err).Int("code", code).Msg("request rejected")
	}
	if code == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if err := c.JSON(code, map[string]string{"detail": msg}); err != nil {
		log.Error().Err(err).Msg("can not write error response")
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r
		start := time.Now()

		next.ServeHTTP(w, r)
		stop := time.Now()

		log.Debug().
			Str("remote", req.RemoteAddr).
			Str("user_agent", req.UserAgent()).
			Str("method", req.Method).
			Str("request uri", r.RequestURI).
			Dur("duration", stop.Sub(start)).
			Str("duration_human", stop.Sub(start).String()).
			Msgf("called url %s", req.URL)
	})
}
