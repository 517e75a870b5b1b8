package conversations

import "context"

// Reference identifies a bot conversation that can be resumed later to post into it.
type Reference struct {
	ServiceURL     string `json:"serviceUrl"`
	ChannelID      string `json:"channelId"`
	ConversationID string `json:"conversationId"`
	TenantID       string `json:"tenantId,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
}

// Key is the equality key of a reference. Tenant and display name don't take part.
type Key struct {
	ServiceURL     string
	ChannelID      string
	ConversationID string
}

func (r Reference) Key() Key {
	return Key{
		ServiceURL:     r.ServiceURL,
		ChannelID:      r.ChannelID,
		ConversationID: r.ConversationID,
	}
}

// Same reports whether both references point at the same conversation.
func (r Reference) Same(other Reference) bool {
	return r.Key() == other.Key()
}

// SendFunc posts a text message into a resumed conversation
type SendFunc func(ctx context.Context, text string) error
