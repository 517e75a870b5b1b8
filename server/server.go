package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-nagbot/bot"
	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/jrsteele09/go-nagbot/internal/config"
	"github.com/jrsteele09/go-nagbot/server/authflowrepo"
	"github.com/jrsteele09/go-nagbot/sessions"
	"github.com/jrsteele09/go-nagbot/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Authenticator runs the authorization code flow and exposes the stored session
type Authenticator interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (string, error)
	Session(key string) (sessions.Session, error)
	ResolveIdentity(key string) (string, bool)
}

// Replier answers inbound bot activities
type Replier interface {
	Trusted(serviceURL string) bool
	Reply(ctx context.Context, incoming bot.Activity, text string) error
}

// Deps are the components the HTTP surface drives
type Deps struct {
	Auth          Authenticator
	Users         users.Repo
	Conversations *conversations.Directory
	AuthState     authflowrepo.Repo
	Bot           Replier
}

type Server struct {
	env     string
	appName string
	baseURL string
	router  chi.Router
	routes  []string

	auth      Authenticator
	users     users.Repo
	directory *conversations.Directory
	authState authflowrepo.Repo
	bot       Replier

	nowFunc func() time.Time
	logger  zerolog.Logger
}

type Option func(*Server)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(cfg config.EnvConfig, deps Deps, options ...Option) (*Server, error) {
	switch {
	case deps.Auth == nil, deps.Users == nil, deps.Conversations == nil, deps.AuthState == nil, deps.Bot == nil:
		return nil, errors.New("[Server New] auth, users, conversations, auth state and bot are required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		appName:   cfg.GetAppName(),
		baseURL:   cfg.GetBaseURL(),
		router:    chi.NewRouter(),
		auth:      deps.Auth,
		users:     deps.Users,
		directory: deps.Conversations,
		authState: deps.AuthState,
		bot:       deps.Bot,
		nowFunc:   time.Now,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "http").Logger()

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoute(method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	s.router.MethodFunc(method, pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, _ := cutRoute(route)
		s.logger.Debug().Msgf("[%s] %s", colourMethod(method), path)
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
