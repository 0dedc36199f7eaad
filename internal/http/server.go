package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jaekwang-park/todo-lite/internal/metrics"
	"github.com/jaekwang-park/todo-lite/internal/middleware"
	"github.com/jaekwang-park/todo-lite/internal/service"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type serverOptions struct {
	metrics        *metrics.Metrics
	tracerProvider trace.TracerProvider
}

type ServerOption func(*serverOptions)

// WithMetrics enables request metrics and the /metrics route.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(o *serverOptions) {
		o.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) ServerOption {
	return func(o *serverOptions) {
		o.tracerProvider = tp
	}
}

func NewServer(port string, logger *slog.Logger, todoSvc *service.TodoService, opts ...ServerOption) *Server {
	o := serverOptions{tracerProvider: noop.NewTracerProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      newHandler(todoSvc, logger, o),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// newHandler builds the router wrapped in the middleware chain:
// request-id -> recovery -> tracing -> logging -> metrics -> router.
func newHandler(todoSvc *service.TodoService, logger *slog.Logger, o serverOptions) http.Handler {
	var metricsHandler http.Handler
	if o.metrics != nil {
		metricsHandler = o.metrics.Handler()
	}

	var h http.Handler = NewRouter(todoSvc, logger, metricsHandler)
	if o.metrics != nil {
		h = middleware.Metrics(o.metrics)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.Tracing(o.tracerProvider, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestID(logger)(h)
	return h
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
