package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// EitherAuthMiddleware accepts either a console JWT or a programmatic
// API key on the same routes. API keys carry the "pp_" prefix, which is
// how the two bearer flavors are told apart.
type EitherAuthMiddleware struct {
	jwtAuth    *JWTMiddleware
	apiKeyAuth *AuthMiddleware
}

func NewEitherAuthMiddleware(jwtAuth *JWTMiddleware, apiKeyAuth *AuthMiddleware) *EitherAuthMiddleware {
	return &EitherAuthMiddleware{
		jwtAuth:    jwtAuth,
		apiKeyAuth: apiKeyAuth,
	}
}

func (m *EitherAuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.Request)

		if m.apiKeyAuth != nil && strings.HasPrefix(token, "pp_") {
			m.apiKeyAuth.Authenticate()(c)
			return
		}

		if m.jwtAuth != nil && token != "" {
			m.jwtAuth.Authenticate()(c)
			return
		}

		if m.apiKeyAuth != nil {
			m.apiKeyAuth.Authenticate()(c)
			return
		}

		abortUnauthorized(c, "Authentication required")
	}
}
