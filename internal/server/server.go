package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"wesline/internal/config"
	"wesline/internal/history"
	"wesline/internal/logging"
	"wesline/internal/proxy"
	"wesline/internal/services/wesapi"
)

// Deps are the collaborators a Server uses. Nil fields are built from the
// config where that is possible.
type Deps struct {
	Logger *slog.Logger
	// API answers /lines/generate, /counterpoint/validate, and /patterns.
	API wesapi.API
	// Probes are health checked, concurrently, by /status.
	Probes []wesapi.API
	// Proxy is mounted under the configured upstream prefix.
	Proxy http.Handler
	// History is optional; nil disables recording and the /history routes
	// answer 503.
	History *history.Store
	Hub     *logging.StreamHub
	Version string
}

// Server is the wesline HTTP service.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	api     wesapi.API
	probes  []wesapi.API
	proxy   http.Handler
	history *history.Store
	hub     *logging.StreamHub
	version string
	started time.Time

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New wires routes and middleware. It does not bind a socket.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server requires config")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "server"),
		api:     deps.API,
		probes:  deps.Probes,
		proxy:   deps.Proxy,
		history: deps.History,
		hub:     deps.Hub,
		version: deps.Version,
		started: time.Now().UTC(),
	}
	if s.version == "" {
		s.version = "dev"
	}

	if s.api == nil {
		upstream, err := wesapi.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.api = upstream
	}
	if s.probes == nil {
		for _, client := range wesapi.ClientsFromConfig(cfg) {
			s.probes = append(s.probes, client)
		}
	}
	if s.proxy == nil {
		p, err := proxy.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.proxy = p
	}

	s.handler = proxy.Chain(s.routes(),
		proxy.RequestID,
		proxy.AccessLog(logger),
		proxy.NewCORS(cfg.CORS).Wrap,
		proxy.NewRateLimiter(cfg.RateLimit).Wrap,
	)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: seconds(cfg.Server.ReadHeaderTimeout, 5),
		WriteTimeout:      seconds(cfg.Server.WriteTimeout, 0),
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	token := strings.TrimSpace(s.cfg.Server.APIToken)
	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, proxy.Route(route)(authMiddleware(token, h)))
	}

	mux.Handle("GET /healthz", proxy.Route("healthz")(http.HandlerFunc(s.handleHealthz)))
	handle("GET /status", "status", s.handleStatus)
	handle("GET /logs", "logs", s.handleLogs)

	handle("POST /notation/line", "notation.line", s.handleRenderLine)
	handle("POST /notation/counterpoint", "notation.counterpoint", s.handleRenderCounterpoint)
	handle("POST /notation/tab", "notation.tab", s.handleRenderTab)

	handle("POST /lines/generate", "lines.generate", s.handleGenerateLine)
	handle("POST /counterpoint/validate", "counterpoint.validate", s.handleValidateCounterpoint)
	handle("GET /patterns", "patterns", s.handlePatterns)

	handle("GET /history", "history.list", s.handleHistoryList)
	handle("GET /history/{id}", "history.get", s.handleHistoryGet)
	handle("DELETE /history/{id}", "history.delete", s.handleHistoryDelete)

	prefix := strings.TrimRight(s.cfg.Upstream.Prefix, "/")
	mux.Handle(prefix+"/", proxy.Route("proxy")(s.proxy))
	return mux
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Listen binds the configured address. Serve calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Bind, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Server.Bind
}

// Serve runs until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.log().Info("http server listening",
		logging.String("address", s.Addr()),
		logging.String("mode", s.cfg.Upstream.Mode),
		logging.Int("pid", os.Getpid()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(s.cfg.Server.ShutdownTimeout, 5))
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log().Warn("http server shutdown", logging.Error(err))
		_ = s.server.Close()
	}
	s.log().Info("http server stopped")
	return nil
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
