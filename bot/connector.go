package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/jrsteele09/go-nagbot/nag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const maxErrorBody = 4 << 10

var _ nag.Dispatcher = (*Connector)(nil)

// Connector posts activities into conversations through the bot connector service.
// Outbound calls carry a client-credentials bearer token for the bot's app registration.
type Connector struct {
	appID      string
	httpClient *http.Client
	logger     zerolog.Logger

	trustedLock sync.RWMutex
	trusted     map[string]struct{}
}

type ConnectorOption func(*connectorOptions)

type connectorOptions struct {
	baseClient *http.Client
	logger     zerolog.Logger
}

// WithHTTPClient sets the client used for both token and connector requests
func WithHTTPClient(client *http.Client) ConnectorOption {
	return func(o *connectorOptions) {
		o.baseClient = client
	}
}

func WithLogger(logger zerolog.Logger) ConnectorOption {
	return func(o *connectorOptions) {
		o.logger = logger
	}
}

// NewConnector builds a connector authenticating as creds.ClientID. Only conversations
// hosted on one of trustedServiceURLs can be resumed.
func NewConnector(creds clientcredentials.Config, trustedServiceURLs []string, options ...ConnectorOption) *Connector {
	opts := connectorOptions{
		baseClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if creds.AuthStyle == oauth2.AuthStyleAutoDetect {
		creds.AuthStyle = oauth2.AuthStyleInParams
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.baseClient)
	client := creds.Client(ctx)
	client.Timeout = opts.baseClient.Timeout

	c := &Connector{
		appID:      creds.ClientID,
		httpClient: client,
		logger:     opts.logger.With().Str("component", "bot").Logger(),
		trusted:    make(map[string]struct{}),
	}
	for _, u := range trustedServiceURLs {
		c.Trust(u)
	}
	return c
}

// Trust allows conversations hosted on serviceURL to be resumed
func (c *Connector) Trust(serviceURL string) {
	key := normalizeServiceURL(serviceURL)
	if key == "" {
		return
	}
	c.trustedLock.Lock()
	defer c.trustedLock.Unlock()
	c.trusted[key] = struct{}{}
}

// Trusted reports whether serviceURL was registered with Trust
func (c *Connector) Trusted(serviceURL string) bool {
	c.trustedLock.RLock()
	defer c.trustedLock.RUnlock()
	_, ok := c.trusted[normalizeServiceURL(serviceURL)]
	return ok
}

// Continue resumes ref and calls fn with a sender bound to that conversation
func (c *Connector) Continue(ctx context.Context, ref conversations.Reference, fn func(ctx context.Context, send conversations.SendFunc) error) error {
	if ref.ServiceURL == "" || ref.ConversationID == "" {
		return ErrInvalidReference
	}
	if !c.Trusted(ref.ServiceURL) {
		return fmt.Errorf("[Connector Continue] %w: %s", ErrUntrustedServiceURL, ref.ServiceURL)
	}
	return fn(ctx, func(ctx context.Context, text string) error {
		return c.SendText(ctx, ref, text)
	})
}

// SendText posts a plain message into ref's conversation
func (c *Connector) SendText(ctx context.Context, ref conversations.Reference, text string) error {
	activity := c.outgoing(ref, text)
	endpoint := activitiesURL(ref.ServiceURL, ref.ConversationID, "")
	return c.post(ctx, endpoint, activity)
}

// Reply answers incoming in its own conversation
func (c *Connector) Reply(ctx context.Context, incoming Activity, text string) error {
	ref := incoming.Reference()
	if !c.Trusted(ref.ServiceURL) {
		return fmt.Errorf("[Connector Reply] %w: %s", ErrUntrustedServiceURL, ref.ServiceURL)
	}
	activity := c.outgoing(ref, text)
	activity.ReplyToID = incoming.ID
	activity.Recipient = incoming.From
	endpoint := activitiesURL(ref.ServiceURL, ref.ConversationID, incoming.ID)
	return c.post(ctx, endpoint, activity)
}

func (c *Connector) outgoing(ref conversations.Reference, text string) Activity {
	now := time.Now().UTC()
	return Activity{
		Type:       MessageActivity,
		ID:         uuid.NewString(),
		Timestamp:  &now,
		ServiceURL: ref.ServiceURL,
		ChannelID:  ref.ChannelID,
		From:       ChannelAccount{ID: c.appID},
		Conversation: ConversationAccount{
			ID:       ref.ConversationID,
			TenantID: ref.TenantID,
		},
		Text:       text,
		TextFormat: "plain",
	}
}

func (c *Connector) post(ctx context.Context, endpoint string, activity Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[Connector post] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &SendError{URL: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}
	c.logger.Debug().Str("conversation", activity.Conversation.ID).Msg("Activity sent")
	return nil
}

func activitiesURL(serviceURL, conversationID, replyToID string) string {
	u := strings.TrimRight(serviceURL, "/") + "/v3/conversations/" + url.PathEscape(conversationID) + "/activities"
	if replyToID != "" {
		u += "/" + url.PathEscape(replyToID)
	}
	return u
}

func normalizeServiceURL(serviceURL string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(serviceURL), "/"))
}
