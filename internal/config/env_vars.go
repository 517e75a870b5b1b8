package config

import (
	"strings"
)

const (
	portEnvVar = "PORT"
	appNameVar = "APP_NAME"
	baseURLVar = "BASE_URL"
	envVar     = "ENV"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	IsDev() bool
}

type EnvVars struct {
	file appFile
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := pick(portEnvVar, e.file.Port, "8080")
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return pick(appNameVar, e.file.Name, "Nag Bot")
}

// GetBaseURL returns the externally reachable URL of this service (e.g., "https://nag.example.com").
// Sign-in links sent into conversations are built from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(pick(baseURLVar, e.file.BaseURL, "http://localhost:8080"), "/")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(pick(envVar, e.file.Env, "DEV"))
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}
