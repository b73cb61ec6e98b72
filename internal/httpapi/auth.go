package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/CyanTarantula/trend-pulse/internal/auth"
	"github.com/CyanTarantula/trend-pulse/internal/db"
)

const (
	apiKeyHeader = "x-api-key"
	apiKeyQuery  = "key"
	principalKey = "auth.principal"
)

type apiPrincipal struct {
	AppName  string
	APIKeyID int64
	Static   bool
}

const unauthorizedHTML = `<!DOCTYPE html>
<html>
  <head>
    <title>Unauthorized</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
      body { background: #000; color: #fff; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; padding: 20px; text-align: center; }
      .container { max-width: 500px; background: #111; padding: 40px; border-radius: 12px; border: 1px solid #333; }
      p { color: #a3a3a3; line-height: 1.5; }
    </style>
  </head>
  <body>
    <div class="container">
      <h1>Access Denied</h1>
      <p>You need a valid API key to access this data.</p>
      <p>Send it in the x-api-key header or the key query parameter.</p>
    </div>
  </body>
</html>
`

func (s *Server) requireAPIKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := apiKeyFromRequest(c)
			if key == "" {
				return unauthorizedResponse(c)
			}

			principal, ok, err := s.authenticate(c, key)
			if err != nil {
				s.logger.Error().Err(err).Msg("api key lookup failed")
				return serverError(c, "Failed to authorize request")
			}
			if !ok {
				return unauthorizedResponse(c)
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func (s *Server) authenticate(c echo.Context, key string) (apiPrincipal, bool, error) {
	if auth.MatchStaticKey(key, s.opts.StaticKeys) {
		return apiPrincipal{AppName: "static", Static: true}, true, nil
	}

	prefix, ok := auth.LookupPrefix(key)
	if !ok || s.keys == nil {
		return apiPrincipal{}, false, nil
	}

	ctx := c.Request().Context()
	row, err := s.keys.GetActiveAPIKeyByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return apiPrincipal{}, false, nil
		}
		return apiPrincipal{}, false, fmt.Errorf("lookup api key: %w", err)
	}
	if !auth.VerifyAPIKey(key, row.KeyHash) {
		return apiPrincipal{}, false, nil
	}

	if err := s.keys.TouchAPIKey(ctx, row.APIKeyID); err != nil {
		s.logger.Warn().Err(err).Int64("api_key_id", row.APIKeyID).Msg("touch api key failed")
	}
	return apiPrincipal{AppName: row.AppName, APIKeyID: row.APIKeyID}, true, nil
}

func apiKeyFromRequest(c echo.Context) string {
	if key := strings.TrimSpace(c.Request().Header.Get(apiKeyHeader)); key != "" {
		return key
	}
	return strings.TrimSpace(c.QueryParam(apiKeyQuery))
}

// unauthorizedResponse answers browsers with an HTML page and API clients
// with JSON.
func unauthorizedResponse(c echo.Context) error {
	if c == nil {
		return fmt.Errorf("authentication required")
	}
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.HTML(http.StatusUnauthorized, unauthorizedHTML)
	}
	return fail(c, http.StatusUnauthorized, "Valid API key required")
}

func principalFromContext(c echo.Context) (apiPrincipal, bool) {
	principal, ok := c.Get(principalKey).(apiPrincipal)
	return principal, ok
}
