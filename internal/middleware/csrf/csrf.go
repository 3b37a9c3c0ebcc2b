package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// Config controls which origins may send state-changing requests that ride
// on the session cookie.
type Config struct {
	AllowedOrigins []string
	SkipPaths      []string
}

// Middleware rejects unsafe requests whose Origin (or Referer) is neither
// the API host itself nor one of the allowed origins. Requests carrying
// neither header come from non-browser clients and pass.
func Middleware(cfg Config) echo.MiddlewareFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		if o = normalize(o); o != "" {
			allowed[o] = struct{}{}
		}
	}
	skip := map[string]struct{}{}
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if safeMethod(req.Method) {
				return next(c)
			}
			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				origin = req.Header.Get("Referer")
			}
			if origin == "" {
				return next(c)
			}

			o := normalize(origin)
			if _, ok := allowed[o]; ok {
				return next(c)
			}
			if strings.EqualFold(o, normalize(schemeOf(req)+"://"+req.Host)) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
		}
	}
}

func safeMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
