package auth

import "errors"

var (
	ErrNoSession      = errors.New("no session for key")
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	ErrRefreshFailed  = errors.New("access token refresh failed")
)
