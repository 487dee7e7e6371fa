package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Role is the caller's role as asserted by the auth service.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

const identityKey = "identity"

// Claims is the token payload. The subject is the user id.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID kernel.UUID
	Role   Role
}

// NewToken signs an HS256 token for userID. Tokens are normally issued by
// the auth service; this is for local tooling and tests.
func NewToken(secret []byte, userID kernel.UUID, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Authenticate validates the bearer token and stores the Identity in the
// echo context.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			var claims Claims
			if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			userID, err := kernel.UUIDFromString(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject").SetInternal(err)
			}
			if !slices.Contains([]Role{RoleCustomer, RoleDriver, RoleAdmin}, claims.Role) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown role").
					SetInternal(errors.New(string(claims.Role)))
			}

			ctx.Set(identityKey, Identity{UserID: userID, Role: claims.Role})
			return next(ctx)
		}
	}
}

// RequireRole rejects callers whose role is not listed. Admins pass every
// check.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id := identity(ctx)
			if id.Role != RoleAdmin && !slices.Contains(roles, id.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "role "+string(id.Role)+" may not call this endpoint")
			}
			return next(ctx)
		}
	}
}

func identity(ctx echo.Context) Identity {
	id, _ := ctx.Get(identityKey).(Identity)
	return id
}
