package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prediction-service/internal/handler"
	"prediction-service/internal/middleware"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	JWTSecret      string // empty leaves the history endpoints open
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	log    *zap.Logger
}

func NewServer(h *handler.Handler, opts Options, log *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(opts.AllowedOrigins))

	var historyAuth []gin.HandlerFunc
	if opts.JWTSecret != "" {
		historyAuth = append(historyAuth, middleware.AuthMiddleware([]byte(opts.JWTSecret), log))
	}
	h.RegisterRoutes(router, historyAuth...)

	return &Server{
		router: router,
		srv: &http.Server{
			Addr:    opts.Addr,
			Handler: router,
		},
		log: log,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("Server starting", zap.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
