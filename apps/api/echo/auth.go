package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mawazo/shule/core"
	"github.com/mawazo/shule/core/account"
)

const (
	tokenContextKey = "accountToken"
	authCookieName  = "auth_token"
)

// newAppJWTConfig returns the JWT auth middleware config.
func newAppJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(account.Claims),
	}
}

// cookieTokenMiddleware promotes the auth cookie to an Authorization header so
// browser clients and API clients go through the same JWT middleware.
func cookieTokenMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			if req.Header.Get(echo.HeaderAuthorization) == "" {
				if cookie, err := req.Cookie(authCookieName); err == nil && cookie.Value != "" {
					req.Header.Set(echo.HeaderAuthorization, "Bearer "+cookie.Value)
				}
			}
			return next(ctx)
		}
	}
}

// setAuthCookie attaches the signed token as a strict http-only cookie.
// Secure is off in DEV so the cookie survives plain http.
func setAuthCookie(ctx echo.Context, token string, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(conf.Server.JWTExpirationDelta.Seconds()),
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteStrictMode,
	})
}

func getContextClaims(ctx echo.Context) (account.Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*account.Claims); ok {
			return *claims, nil
		}
	}
	return account.Claims{}, errUnauthorized
}
