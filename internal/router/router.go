package router // package router wires handlers and middleware onto echo

import (
	"github.com/labstack/echo/v4"

	"github.com/kashmau/track-fitness/internal/handler"
	"github.com/kashmau/track-fitness/internal/middleware"
	"github.com/kashmau/track-fitness/internal/model"
)

// apiPrefixes lists the mount points of every auth route.  Clients have used
// both the bare paths and the /api variants.
var apiPrefixes = []string{"", "/api"}

// PublicPaths is the gate's allow-list: credential endpoints, the OAuth
// flow, health checks and docs.  Entries ending in "/" are prefixes.
func PublicPaths() []string {
	base := []string{
		"/register",
		"/loginUser",
		"/refresh",
		"/logout",
		"/oauth2/",
		"/login/oauth2/",
		"/public/",
		"/docs/",
	}
	out := []string{"/healthz", "/readyz"}
	for _, prefix := range apiPrefixes {
		for _, p := range base {
			out = append(out, prefix+p)
		}
	}
	return out
}

// AuthDeps carries what RegisterAuth mounts.
type AuthDeps struct {
	Auth    *handler.AuthHandler
	OAuth   *handler.OAuthHandler
	Limiter echo.MiddlewareFunc
	Ready   echo.HandlerFunc
}

// RegisterAuth mounts the auth service.  The caller must already have added
// middleware.Gate with PublicPaths to e.
func RegisterAuth(e *echo.Echo, d AuthDeps) {
	e.GET("/healthz", handler.Health)
	if d.Ready != nil {
		e.GET("/readyz", d.Ready)
	}

	for _, prefix := range apiPrefixes {
		g := e.Group(prefix)

		// credential endpoints are rate limited per client
		g.POST("/register", d.Auth.Register, d.Limiter)
		g.POST("/loginUser", d.Auth.Login, d.Limiter)
		g.POST("/refresh", d.Auth.Refresh, d.Limiter)
		g.POST("/logout", d.Auth.Logout)

		if d.OAuth != nil {
			g.GET("/oauth2/authorization/:provider", d.OAuth.Start)
			g.GET("/login/oauth2/code/:provider", d.OAuth.Callback)
		}

		g.GET("/me", d.Auth.Me, middleware.RequireAuth())
		admin := []echo.MiddlewareFunc{middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin)}
		g.GET("/admin/users", d.Auth.LookupUser, admin...)
		g.DELETE("/admin/users/:id/sessions", d.Auth.RevokeSessions, admin...)
	}
}

// ProfileDeps carries what RegisterProfile mounts.
type ProfileDeps struct {
	Profile  *handler.ProfileHandler
	Identity echo.MiddlewareFunc
	Cache    echo.MiddlewareFunc
	Purge    echo.MiddlewareFunc
	Ready    echo.HandlerFunc
}

// RegisterProfile mounts the profile service.  Every profile route runs the
// identity middleware; reads go through the response cache and writes purge
// the caller's entries.
func RegisterProfile(e *echo.Echo, d ProfileDeps) {
	e.GET("/healthz", handler.Health)
	if d.Ready != nil {
		e.GET("/readyz", d.Ready)
	}

	write := []echo.MiddlewareFunc{d.Identity, d.Purge}
	read := []echo.MiddlewareFunc{d.Identity, d.Purge, d.Cache}
	h := d.Profile

	for _, prefix := range apiPrefixes {
		g := e.Group(prefix)

		g.GET("/getUserProfile", h.Get, read...)
		g.POST("/userProfile", h.Create, write...)
		g.PUT("/userProfile", h.Update, write...)
		g.DELETE("/userProfile", h.Delete, write...)

		g.GET("/userProfile/goals", h.ListGoals, read...)
		g.POST("/userProfile/goals", h.AddGoal, write...)
		g.GET("/userProfile/healthHistory", h.ListHealthHistory, read...)
		g.POST("/userProfile/healthHistory", h.AddHealthRecord, write...)
		g.GET("/userProfile/metrics", h.ListMetrics, read...)
		g.POST("/userProfile/metrics", h.RecordMetric, write...)
		g.GET("/userProfile/fitnessScores", h.ListFitnessScores, read...)
		g.POST("/userProfile/fitnessScores", h.RecordFitnessScore, write...)
	}
}
