package middleware

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/mediamind-ai/mediamind/pkg/audit"
	"github.com/mediamind-ai/mediamind/pkg/auth"
	"github.com/mediamind-ai/mediamind/pkg/routing"
	"github.com/mediamind-ai/mediamind/pkg/web"
)

var bearerRegex = regexp.MustCompile(`^Bearer\s+(\S+)$`)

// JWTAuthenticator guards routes with bearer tokens
type JWTAuthenticator struct {
	Tokens *auth.Tokens
	// Audit receives an event per authentication attempt when set
	Audit *audit.Auditor
}

// NewJWTAuthenticator creates a new JWT authenticator middleware
func NewJWTAuthenticator(tokens *auth.Tokens) *JWTAuthenticator {
	return &JWTAuthenticator{Tokens: tokens}
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(req *web.Request) (string, error) {
	header := req.Header("Authorization", "")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	matches := bearerRegex.FindStringSubmatch(header)
	if len(matches) != 2 {
		return "", errors.New("malformed authorization header")
	}
	return matches[1], nil
}

// Middleware rejects requests without a valid token with 401. The
// verified claims are available to the action through auth.ClaimsFrom.
func (j *JWTAuthenticator) Middleware(next routing.Action) routing.Action {
	return func(req *web.Request) (*web.Response, error) {
		token, err := BearerToken(req)
		if err != nil {
			j.record(req, "", err.Error())
			return unauthorized(err.Error())
		}

		claims, err := j.Tokens.Parse(token)
		if err != nil {
			j.record(req, "", "Invalid token")
			return unauthorized("Invalid token")
		}
		j.record(req, claims.Subject, "")

		return next(req.WithContext(auth.WithClaims(req.Context(), claims)))
	}
}

func (j *JWTAuthenticator) record(req *web.Request, subject, failure string) {
	j.Audit.Record(req.Context(), audit.AuthenticateEvent{
		Subject:      subject,
		ClientIP:     req.IP(),
		Success:      failure == "",
		ErrorMessage: failure,
	})
}

func unauthorized(message string) (*web.Response, error) {
	return web.JSON(map[string]string{"error": message}, http.StatusUnauthorized, map[string]string{
		"WWW-Authenticate": `Bearer realm="api"`,
	})
}
