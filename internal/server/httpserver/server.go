// Package httpserver exposes the authentication flows over HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/dmitrijs2005/profilekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the set of flows served by the handlers.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicProfile, error)
	GoogleLogin(ctx context.Context, in services.GoogleLoginInput) (*services.AuthResult, error)
	UpdateSettings(ctx context.Context, userID string, in services.UpdateSettingsInput) (*models.PublicProfile, error)
}

// TokenVerifier resolves a bearer token to the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*models.PublicProfile, error)
}

type Options struct {
	Address         string
	MaxUploadSize   int64
	ShutdownTimeout time.Duration
}

type Server struct {
	opts   Options
	users  AuthService
	tokens TokenVerifier
	logger logging.Logger
	engine *gin.Engine
}

const defaultMaxUploadSize = 8 << 20

var netListen = net.Listen

func NewServer(opts Options, l logging.Logger, us AuthService, tv TokenVerifier) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = defaultMaxUploadSize
	}

	s := &Server{
		opts:   opts,
		users:  us,
		tokens: tv,
		logger: l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := netListen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	// cancelled on every return; the shutdown goroutine waits on it
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-stopped
		return err
	}

	return <-stopped
}
