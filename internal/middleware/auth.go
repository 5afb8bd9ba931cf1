package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/models"
)

// Auth validates the session credential and stores the viewer id in the
// request context. The token is read from the "token" cookie (how the web
// client sends it), with a bearer Authorization header as fallback.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := ""
			if cookie, err := c.Cookie("token"); err == nil && cookie.Value != "" {
				tokenString = cookie.Value
			} else if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
				}
				tokenString = parts[1]
			}
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing credentials")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set("userID", claims.UserID)
			return next(c)
		}
	}
}
