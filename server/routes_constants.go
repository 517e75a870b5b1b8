package server

// Route path constants
const (
	// Sign-in flow
	RouteSignIn       = "/auth/signin"
	RouteCallback     = "/auth/callback"
	RouteSignedIn     = "/auth/success"
	RouteSignInFailed = "/auth/failed"

	// Bot connector webhook
	RouteMessages = "/api/messages"

	// Signed-in user
	RouteMe              = "/api/me"
	RouteMeConversations = "/api/me/conversations"

	RouteHealth = "/healthz"
)

// signInKeyParam carries the pending temp key on the sign-in link
const signInKeyParam = "k"
