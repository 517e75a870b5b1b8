// Package app builds every long-lived component once at startup and wires them together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-nagbot/auth"
	"github.com/jrsteele09/go-nagbot/bot"
	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/jrsteele09/go-nagbot/internal/config"
	"github.com/jrsteele09/go-nagbot/nag"
	"github.com/jrsteele09/go-nagbot/retry"
	"github.com/jrsteele09/go-nagbot/server"
	"github.com/jrsteele09/go-nagbot/server/authflowrepo"
	"github.com/jrsteele09/go-nagbot/sessions"
	"github.com/jrsteele09/go-nagbot/storage/redisstore"
	"github.com/jrsteele09/go-nagbot/tasks"
	"github.com/jrsteele09/go-nagbot/users"
	fakeuserrepo "github.com/jrsteele09/go-nagbot/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	authFlowTTL       = 10 * time.Minute
	profileOpTimeout  = 5 * time.Second
	redisKeyPrefix    = "nagbot"
	httpClientTimeout = 30 * time.Second
)

// App is the explicit application context: one instance per process
type App struct {
	Config        config.Config
	Sessions      sessions.Repo
	Auth          *auth.Manager
	Users         users.Repo
	Conversations *conversations.Directory
	Persister     *conversations.Persister
	AuthState     authflowrepo.Repo
	Tasks         *tasks.Client
	Bot           *bot.Connector
	Scheduler     *nag.Scheduler
	Server        *server.Server

	redis  *redis.Client
	logger zerolog.Logger
}

type Option func(*options)

type options struct {
	logger     zerolog.Logger
	httpClient *http.Client
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets the client used for the identity provider, the task API and the bot connector
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// New connects storage, restores persisted conversation bindings and builds the
// auth manager, task client, bot connector, scheduler and HTTP server.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{
		logger:     log.Logger,
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, logger: o.logger}
	if err := a.initStorage(ctx); err != nil {
		return nil, err
	}

	if err := a.build(ctx, o); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	a.Conversations = conversations.NewDirectory()

	redisURL := a.Config.GetRedisURL()
	if redisURL == "" {
		a.logger.Warn().Msg("REDIS_URL not set, sessions, users and conversation bindings are kept in memory")
		a.Sessions = sessions.NewInMemoryRepo()
		a.Users = fakeuserrepo.NewFakeUserRepo()
		a.AuthState = authflowrepo.NewInMemoryRepo(authFlowTTL)
		a.Persister = conversations.NewPersister(a.Conversations, conversations.NewMemoryStore(), a.logger)
		return nil
	}

	client, err := redisstore.Connect(ctx, redisURL)
	if err != nil {
		return fmt.Errorf("[app New] %w", err)
	}
	a.redis = client
	a.Sessions = redisstore.NewSessionRepo(client, redisKeyPrefix)
	a.Users = redisstore.NewUserRepo(client, redisKeyPrefix)
	a.AuthState = redisstore.NewAuthFlowStore(client, redisKeyPrefix, authFlowTTL)
	a.Persister = conversations.NewPersister(a.Conversations, redisstore.NewConversationStore(client, redisKeyPrefix), a.logger)
	return nil
}

func (a *App) build(ctx context.Context, o options) error {
	cfg := a.Config

	if err := a.Persister.Restore(ctx); err != nil {
		return fmt.Errorf("[app New] restore conversations: %w", err)
	}
	a.Persister.Attach()

	oauthConfig, err := auth.NewOAuth2Config(ctx, cfg)
	if err != nil {
		return fmt.Errorf("[app New] %w", err)
	}
	a.Auth, err = auth.NewManager(oauthConfig, a.Sessions,
		auth.WithHTTPClient(o.httpClient),
		auth.WithLogger(a.logger),
		auth.WithSessionKeyLength(cfg.GetSessionKeyLength()),
	)
	if err != nil {
		return fmt.Errorf("[app New] %w", err)
	}
	a.Auth.OnRefreshed(a.recordTokenRenewed)

	a.Tasks = tasks.NewClient(cfg.GetTasksBaseURL(),
		tasks.WithHTTPClient(o.httpClient),
		tasks.WithTag(cfg.GetNagTag()),
		tasks.WithRetryPolicy(retry.Policy{MaxAttempts: cfg.GetRetryAttempts(), InitialDelay: cfg.GetRetryDelay()}),
		tasks.WithLogger(a.logger),
	)

	if cfg.GetBotAppID() == "" {
		a.logger.Warn().Msg("BOT_APP_ID not set, outbound bot messages will be rejected by the connector")
	}
	a.Bot = bot.NewConnector(clientcredentials.Config{
		ClientID:     cfg.GetBotAppID(),
		ClientSecret: cfg.GetBotAppPassword(),
		TokenURL:     cfg.GetBotTokenURL(),
		Scopes:       cfg.GetBotScopes(),
	}, cfg.GetTrustedServiceURLs(), bot.WithHTTPClient(o.httpClient), bot.WithLogger(a.logger))

	a.Scheduler, err = nag.NewScheduler(nag.Deps{
		Users:         a.Users,
		Tokens:        a.Auth,
		Tasks:         a.Tasks,
		Conversations: a.Conversations,
		Dispatcher:    a.Bot,
	}, cfg.GetNagPolicy(),
		nag.WithInterval(cfg.GetNagInterval(cfg.IsDev())),
		nag.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("[app New] %w", err)
	}

	a.Server, err = server.New(cfg, server.Deps{
		Auth:          a.Auth,
		Users:         a.Users,
		Conversations: a.Conversations,
		AuthState:     a.AuthState,
		Bot:           a.Bot,
	}, server.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("[app New] %w", err)
	}
	return nil
}

// recordTokenRenewed stamps the profile of a user whose access token was refreshed
func (a *App) recordTokenRenewed(session sessions.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), profileOpTimeout)
	defer cancel()

	profile, err := a.Users.Get(ctx, session.Identity)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			a.logger.Err(err).Str("identity", session.Identity).Msg("Failed to load profile for token renewal")
		}
		return
	}
	profile.TokenRenewed = time.Now()
	if err := a.Users.Upsert(ctx, profile); err != nil {
		a.logger.Err(err).Str("identity", session.Identity).Msg("Failed to record token renewal")
	}
}

// Close releases storage connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Err(err).Msg("Failed to close redis client")
		}
		a.redis = nil
	}
}
