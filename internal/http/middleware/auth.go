package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"crewops/internal/config"
	"crewops/internal/model"
)

// ActorLocalKey stores the authenticated model.Actor in Fiber locals.
const ActorLocalKey = "actor"

// Claims are the bearer token claims. Subject carries the actor id.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for actor valid for cfg.TokenTTL.
func GenerateToken(cfg config.AuthConfig, actor model.Actor, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(cfg.TokenTTL)
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func validRole(r model.Role) bool {
	switch r {
	case model.RoleAdmin, model.RoleShipowner, model.RoleSeafarer:
		return true
	}
	return false
}

// Auth rejects requests without a valid bearer token with 401 and stores the
// caller as a model.Actor.
func Auth(cfg config.AuthConfig) fiber.Handler {
	secret := []byte(cfg.JWTSecret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}

	return func(c *fiber.Ctx) error {
		if len(secret) == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication is not configured")
		}

		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, opts...)
		if err != nil || tok == nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" || !validRole(claims.Role) {
			return fiber.NewError(fiber.StatusUnauthorized, "token lacks subject or role")
		}

		c.Locals(ActorLocalKey, model.Actor{ID: claims.Subject, Role: claims.Role})
		return c.Next()
	}
}

// RequireRole answers 403 unless the authenticated actor holds one of roles.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "role "+string(actor.Role)+" may not access this resource")
	}
}

// ActorFromCtx returns the actor stored by Auth.
func ActorFromCtx(c *fiber.Ctx) (model.Actor, bool) {
	a, ok := c.Locals(ActorLocalKey).(model.Actor)
	return a, ok
}
