package httpserver

import (
	"net/http"
	"time"
)

type CookieConfig struct {
	Secure bool
}

// sameSite is None for the cross-origin storefront; browsers drop None
// cookies that are not Secure, so plain-http dev falls back to Lax.
func (cfg CookieConfig) sameSite() http.SameSite {
	if cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (cfg CookieConfig) CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	}
}

func (cfg CookieConfig) DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
	}
}
