package jwt

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/api/http/presenter"
	"github.com/artem13815/hr-optimizer/pkg/apperr"
)

// LocalsUserID is the fiber Locals key holding the authenticated user id (uuid.UUID).
const LocalsUserID = "userId"

// NewAuthMiddleware returns a Fiber middleware that validates Bearer JWT (HS256).
// On success sets user id (subject) into c.Locals("userId").
func NewAuthMiddleware(secret, expectedIssuer string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		tokenStr := bearer(c.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			return presenter.AppError(c, apperr.New(apperr.CodeAuth, "missing Authorization header"))
		}
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
		if expectedIssuer != "" {
			opts = append(opts, jwt.WithIssuer(expectedIssuer))
		}
		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			return secretBytes, nil
		}, opts...)
		if err != nil || !token.Valid {
			return presenter.AppError(c, apperr.New(apperr.CodeAuth, "invalid or expired token"))
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return presenter.AppError(c, apperr.New(apperr.CodeAuth, "invalid token claims"))
		}
		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			return presenter.AppError(c, apperr.New(apperr.CodeAuth, "invalid token subject"))
		}
		c.Locals(LocalsUserID, uid)
		return c.Next()
	}
}

// UserID returns the authenticated user or uuid.Nil.
func UserID(c *fiber.Ctx) uuid.UUID {
	uid, _ := c.Locals(LocalsUserID).(uuid.UUID)
	return uid
}

// bearer supports both "Bearer <token>" and a bare "<token>".
func bearer(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
