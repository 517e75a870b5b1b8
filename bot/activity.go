package bot

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/jrsteele09/go-nagbot/conversations"
)

const (
	MessageActivity            = "message"
	ConversationUpdateActivity = "conversationUpdate"
)

var mention = regexp.MustCompile(`(?i)<at>.*?</at>`)

// ChannelAccount identifies a user or bot on a channel
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

type ConversationAccount struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
}

// Activity is the subset of the bot connector activity schema the bot reads and sends
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	Timestamp    *time.Time          `json:"timestamp,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	Text         string              `json:"text,omitempty"`
	TextFormat   string              `json:"textFormat,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	ChannelData  json.RawMessage     `json:"channelData,omitempty"`
}

// Reference captures what is needed to post into the activity's conversation later
func (a Activity) Reference() conversations.Reference {
	return conversations.Reference{
		ServiceURL:     a.ServiceURL,
		ChannelID:      a.ChannelID,
		ConversationID: a.Conversation.ID,
		TenantID:       a.Conversation.TenantID,
		DisplayName:    a.Conversation.Name,
	}
}

// Command returns the lower-cased first word of a message, without any leading mention
func (a Activity) Command() string {
	fields := strings.Fields(mention.ReplaceAllString(a.Text, " "))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
