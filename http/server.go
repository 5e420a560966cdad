package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
)

const (
	shutdownTimeout   = 1 * time.Second
	readHeaderTimeout = 5 * time.Second
	maxBodySize       = 64 << 10
)

// DigestPlanner builds and dispatches the digest plans of all active subscribers.
type DigestPlanner interface {
	Run(ctx context.Context) (int, error)
}

// Server is a reference implementation of the spreadsheet backed subscriber
// store: the same POST contract, backed by a SubscriberService.
type Server struct {
	ln     net.Listener
	server *http.Server
	router *mux.Router
	logger zerolog.Logger

	Addr       string
	Domain     string
	HMACSecret string
	Now        func() time.Time

	SubscriberService newsletter.SubscriberService
	MailerService     newsletter.MailerService
	Planner           DigestPlanner
}

// NewServer returns a server logging requests to logger.
func NewServer(logger zerolog.Logger) *Server {
	s := &Server{
		router: mux.NewRouter().StrictSlash(true),
		logger: logger,
		Now:    time.Now,
	}
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.middleware()
	s.routes()

	return s
}

func (s *Server) middleware() {
	s.router.Use(
		hlog.NewHandler(s.logger),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("")
		}),
		hlog.UserAgentHandler("user_agent"),
		hlog.RefererHandler("referer"),
		hlog.RequestIDHandler("req_id", "Request-Id"),
		sentryhttp.New(sentryhttp.Options{}).Handle,
	)
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	// Apps Script deployments are reached at /exec; both paths take the action envelope.
	for _, path := range []string{"/", "/exec"} {
		s.router.HandleFunc(path, s.Error(s.execHandler)).Methods(http.MethodPost)
	}

	s.router.HandleFunc("/unsubscribe", s.Error(s.unsubscribeLinkHandler)).Methods(http.MethodGet)
	s.router.HandleFunc("/digest/run", s.Error(s.runDigestHandler)).Methods(http.MethodPost)
}

// URL returns the base URL that mail links point at: https on the public
// domain when one is set, else the local listener.
func (s *Server) URL() string {
	if s.Domain != "" {
		return "https://" + s.Domain
	}

	port := 0
	if s.ln != nil {
		port = s.ln.Addr().(*net.TCPAddr).Port
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, &newsletter.Response{Status: newsletter.ResponseSuccess})
}

// Open listens on Addr and serves in the background.
func (s *Server) Open() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.Serve()
	return nil
}

// Listen binds Addr without accepting connections yet, so URL is known
// before the services are wired.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.Addr)
	}
	s.ln = ln
	return nil
}

// Serve accepts connections on the listener bound by Listen.
func (s *Server) Serve() {
	ln := s.ln
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("server stopped")
		}
	}()
}

// Close waits up to shutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	//nolint:errcheck
	json.NewEncoder(w).Encode(response)
}
