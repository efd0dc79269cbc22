package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/logging"
	"github.com/mediamind-ai/mediamind/pkg/server/middleware"
)

// Options configures a Server
type Options struct {
	Host string
	Port string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger *zap.Logger
	// DB is checked by /healthz when set
	DB *gorm.DB
	// Registry receives the HTTP and runtime collectors. A new registry
	// is used when nil.
	Registry *prometheus.Registry
}

type Server struct {
	Router   *mux.Router
	Registry *prometheus.Registry
	Logger   *zap.Logger
	DB       *gorm.DB
	srv      *http.Server
	shutdown time.Duration
}

// NewServer serves app behind the operational endpoints /healthz and
// /metrics and the request middleware chain
func NewServer(app http.Handler, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	metrics, err := middleware.NewMetrics(opts.Registry)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Router:   mux.NewRouter(),
		Registry: opts.Registry,
		Logger:   opts.Logger,
		DB:       opts.DB,
		shutdown: opts.ShutdownTimeout,
	}
	s.Router.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.Router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.Router.PathPrefix("/").Handler(app)

	var h http.Handler = s.Router
	h = handlers.CompressHandler(h)
	h = metrics.Middleware(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(opts.Logger)),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.CombinedLoggingHandler(logging.Writer{Logger: opts.Logger, Msg: "request"}, h)
	h = middleware.RequestID(h)
	h = handlers.ProxyHeaders(h)

	s.srv = &http.Server{
		Handler:      h,
		Addr:         net.JoinHostPort(opts.Host, opts.Port),
		WriteTimeout: opts.WriteTimeout,
		ReadTimeout:  opts.ReadTimeout,
	}
	return s, nil
}

// Handler returns the full middleware chain
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Addr() string { return s.srv.Addr }

// Start serves until ctx is cancelled and then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	s.Logger.Info("server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok", "database": "not configured"}
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, s.DB); err != nil {
			s.Logger.Warn("health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body["database"] = "unavailable"
		} else {
			body["database"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
