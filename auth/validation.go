package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateRedirectURI checks the callback URL registered with the provider
func ValidateRedirectURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("redirect url is required")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("redirect url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("redirect url must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("redirect url must be absolute")
	}
	if u.Fragment != "" || strings.Contains(uri, "#") {
		return fmt.Errorf("redirect url must not contain fragments")
	}
	return nil
}

// ValidateScopes rejects scope tokens that would corrupt the space separated scope parameter
func ValidateScopes(scopes []string) error {
	for _, s := range scopes {
		if s == "" {
			return fmt.Errorf("scope must not be empty")
		}
		if strings.ContainsAny(s, " \n\r\t") {
			return fmt.Errorf("scope %q contains whitespace", s)
		}
	}
	return nil
}
