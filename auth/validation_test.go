package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-nagbot/auth"
	"github.com/stretchr/testify/require"
)

func TestValidateRedirectURI(t *testing.T) {
	t.Run("valid https URI", func(t *testing.T) {
		require.NoError(t, auth.ValidateRedirectURI("https://nag.example.com/auth/callback"))
	})

	t.Run("valid http URI", func(t *testing.T) {
		require.NoError(t, auth.ValidateRedirectURI("http://localhost:8080/auth/callback"))
	})

	t.Run("empty URI", func(t *testing.T) {
		err := auth.ValidateRedirectURI(" ")
		require.Error(t, err)
		require.Contains(t, err.Error(), "redirect url is required")
	})

	t.Run("invalid scheme", func(t *testing.T) {
		err := auth.ValidateRedirectURI("ftp://example.com/callback")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must use http or https")
	})

	t.Run("relative URI", func(t *testing.T) {
		err := auth.ValidateRedirectURI("/auth/callback")
		require.Error(t, err)
	})

	t.Run("URI with fragment", func(t *testing.T) {
		err := auth.ValidateRedirectURI("https://example.com/callback#fragment")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must not contain fragments")
	})
}

func TestValidateScopes(t *testing.T) {
	require.NoError(t, auth.ValidateScopes(nil))
	require.NoError(t, auth.ValidateScopes([]string{"Tasks.ReadWrite", "User.Read"}))

	err := auth.ValidateScopes([]string{"Tasks.ReadWrite User.Read"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "whitespace")

	require.Error(t, auth.ValidateScopes([]string{""}))
}
