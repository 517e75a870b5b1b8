package config

type BotConfig interface {
	GetBotAppID() string
	GetBotAppPassword() string
	GetBotTokenURL() string
	GetBotScopes() []string
	GetTrustedServiceURLs() []string
}

type Bot struct {
	file botFile
}

var _ BotConfig = Bot{}

func (b Bot) GetBotAppID() string {
	return pick("BOT_APP_ID", b.file.AppID, "")
}

func (b Bot) GetBotAppPassword() string {
	return pick("BOT_APP_PASSWORD", b.file.AppPassword, "")
}

func (b Bot) GetBotTokenURL() string {
	return pick("BOT_TOKEN_URL", b.file.TokenURL, "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token")
}

func (b Bot) GetBotScopes() []string {
	return pickList("BOT_SCOPES", b.file.Scopes, []string{"https://api.botframework.com/.default"})
}

// GetTrustedServiceURLs lists the connector endpoints the bot may post to
func (b Bot) GetTrustedServiceURLs() []string {
	return pickList("BOT_TRUSTED_SERVICE_URLS", b.file.TrustedServiceURLs, nil)
}
