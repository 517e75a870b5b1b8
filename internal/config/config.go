package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	OAuthConfig
	BotConfig
	NagConfig
	StorageConfig
}

type mainConfig struct {
	EnvVars
	OAuth
	Bot
	Nag
	Storage
}

// New resolves configuration from the optional YAML file named by CONFIG_FILE
// and environment variables. Environment variables win over the file.
func New() (Config, error) {
	return Load(os.Getenv(configFileVar))
}

// Load is New with an explicit file path. An empty path skips the file.
func Load(path string) (Config, error) {
	var f fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("[config Load] read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("[config Load] parse %s: %w", path, err)
		}
	}

	return mainConfig{
		EnvVars: EnvVars{file: f.App},
		OAuth:   OAuth{file: f.OAuth},
		Bot:     Bot{file: f.Bot},
		Nag:     Nag{file: f.Nag},
		Storage: Storage{file: f.Storage},
	}, nil
}
