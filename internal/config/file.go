package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// fileConfig mirrors the YAML schema of the optional config file.
type fileConfig struct {
	App     appFile     `yaml:"app"`
	OAuth   oauthFile   `yaml:"oauth"`
	Bot     botFile     `yaml:"bot"`
	Nag     nagFile     `yaml:"nag"`
	Storage storageFile `yaml:"storage"`
}

type appFile struct {
	Name    string `yaml:"name"`
	Port    string `yaml:"port"`
	BaseURL string `yaml:"base_url"`
	Env     string `yaml:"env"`
}

type oauthFile struct {
	IssuerURL    string   `yaml:"issuer_url"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

type botFile struct {
	AppID              string   `yaml:"app_id"`
	AppPassword        string   `yaml:"app_password"`
	TokenURL           string   `yaml:"token_url"`
	Scopes             []string `yaml:"scopes"`
	TrustedServiceURLs []string `yaml:"trusted_service_urls"`
}

type nagFile struct {
	Policy        string        `yaml:"policy"`
	Tag           string        `yaml:"tag"`
	TasksBaseURL  string        `yaml:"tasks_base_url"`
	IntervalDev   time.Duration `yaml:"interval_dev"`
	IntervalProd  time.Duration `yaml:"interval_prod"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

type storageFile struct {
	RedisURL string `yaml:"redis_url"`
}

// GetEnv returns the environment variable, falling back to defaultValue when unset
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// pick returns the env var, then the file value, then the default
func pick(envVar, fileValue, defaultValue string) string {
	if fileValue != "" {
		defaultValue = fileValue
	}
	return GetEnv(envVar, defaultValue)
}

func pickList(envVar string, fileValue, defaultValue []string) []string {
	if v := os.Getenv(envVar); v != "" {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if len(fileValue) > 0 {
		return fileValue
	}
	return defaultValue
}

func pickInt(envVar string, fileValue, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(envVar)); err == nil {
		return v
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func pickDuration(envVar string, fileValue, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(envVar)); err == nil {
		return v
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}
