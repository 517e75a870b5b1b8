package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) initRoutes() error {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.LoggingMiddleware)
	s.router.Use(s.RecoverMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	signedIn, err := s.PageHandler("signed_in.html", http.StatusOK)
	if err != nil {
		return err
	}
	failed, err := s.PageHandler("signin_failed.html", http.StatusBadRequest)
	if err != nil {
		return err
	}

	s.registerRoute(http.MethodGet, RouteHealth, s.HealthHandler())

	s.registerRoute(http.MethodGet, RouteSignIn, ChainMiddleware(s.SignInHandler(), s.FrameSecurityMiddleware))
	s.registerRoute(http.MethodGet, RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.FrameSecurityMiddleware))
	s.registerRoute(http.MethodPost, RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.FrameSecurityMiddleware)) // form_post response mode
	s.registerRoute(http.MethodGet, RouteSignedIn, ChainMiddleware(signedIn, s.FrameSecurityMiddleware))
	s.registerRoute(http.MethodGet, RouteSignInFailed, ChainMiddleware(failed, s.FrameSecurityMiddleware))

	s.registerRoute(http.MethodPost, RouteMessages, s.MessagesHandler())

	s.registerRoute(http.MethodGet, RouteMe, ChainMiddleware(s.MeHandler(), s.RequireSession()))
	s.registerRoute(http.MethodDelete, RouteMeConversations, ChainMiddleware(s.UnlinkHandler(), s.RequireSession()))
	return nil
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}
