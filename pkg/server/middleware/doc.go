// Package middleware holds the HTTP middleware of the server and the
// bearer token guard used by API routes.
//
// RequestID and Metrics wrap http.Handler. JWTAuthenticator.Middleware
// wraps routing actions:
//
//	jwt := middleware.NewJWTAuthenticator(tokens)
//	r.Group(routing.GroupAttributes{Prefix: "/api", Middleware: []routing.Middleware{jwt.Middleware}}, ...)
package middleware
