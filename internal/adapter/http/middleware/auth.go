package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"homefix_orders/internal/domain/entities"
	"homefix_orders/pkg"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

var (
	errMissingToken = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or malformed bearer token", http.StatusUnauthorized)
	errInvalidToken = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Invalid or expired token", http.StatusUnauthorized)
	errForbidden    = pkg.NewDomainErrorSimple("FORBIDDEN", "Access denied", http.StatusForbidden)
)

// Claims is the token payload issued by the identity service. Subject is the
// id of the entity the caller acts for.
type Claims struct {
	Role       entities.Role `json:"role"`
	ProviderID string        `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate resolves the bearer token into an entities.Actor. Browsers
// cannot set headers on websocket upgrades, so access_token is accepted as a
// query parameter too.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(errMissingToken.HTTPStatus, errMissingToken.ToHTTPError())
			return
		}

		actor, err := ParseActor(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(errInvalidToken.HTTPStatus, errInvalidToken.ToHTTPError())
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ParseActor validates an HS256 token and maps its claims.
func ParseActor(tokenStr string, secret []byte) (entities.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return entities.Actor{}, err
	}
	if !token.Valid {
		return entities.Actor{}, errors.New("invalid token")
	}

	role := entities.Role(strings.ToLower(strings.TrimSpace(string(claims.Role))))
	if !role.Valid() || strings.TrimSpace(claims.Subject) == "" {
		return entities.Actor{}, errors.New("invalid token claims")
	}
	return entities.Actor{Role: role, ID: claims.Subject, ProviderID: claims.ProviderID}, nil
}

// ActorFrom returns the actor stored by Authenticate.
func ActorFrom(c *gin.Context) (entities.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return entities.Actor{}, false
	}
	actor, ok := v.(entities.Actor)
	return actor, ok
}

// WithActor stores an actor on the context. Used by tests and internal callers.
func WithActor(c *gin.Context, actor entities.Actor) {
	c.Set(actorKey, actor)
}

// RequireRoles ensures the caller's role is one of roles.
// Usage: group.Use(Authenticate(secret), RequireRoles(entities.RoleAdmin))
func RequireRoles(roles ...entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !slices.Contains(roles, actor.Role) {
			c.AbortWithStatusJSON(errForbidden.HTTPStatus, errForbidden.ToHTTPError())
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
			return ""
		}
		return strings.TrimSpace(h[len(prefix):])
	}
	return strings.TrimSpace(c.Query("access_token"))
}
