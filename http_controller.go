package connect

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// PrincipalResolver extracts the current security-context principal from a
// request. Returning Anonymous() is always safe.
type PrincipalResolver func(ctx router.Context) Principal

// HTTPController exposes the login resolution flow over HTTP.
type HTTPController struct {
	resolver *LoginResolver
	config   HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/auth/connect")
	PathPrefix string

	// CookieName for storing the identity token (default: "identity")
	CookieName string

	// CookieSecure sets the Secure flag on cookies
	CookieSecure bool

	// CookieHTTPOnly sets the HttpOnly flag on cookies
	CookieHTTPOnly bool

	// CookieSameSite sets the SameSite attribute (e.g. "Lax", "Strict", "None")
	CookieSameSite string

	// SuccessRedirect is the default redirect after successful auth
	SuccessRedirect string

	// ErrorRedirect is the redirect for auth errors
	ErrorRedirect string

	// Principal resolves the already authenticated caller, if any
	Principal PrincipalResolver

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error
}

// NewHTTPController creates a login resolution HTTP controller.
func NewHTTPController(resolver *LoginResolver, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/auth/connect"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "identity"
	}
	if cfg.CookieSameSite == "" {
		cfg.CookieSameSite = "Lax"
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.ErrorRedirect == "" {
		cfg.ErrorRedirect = "/login?error=auth_failed"
	}

	return &HTTPController{
		resolver: resolver,
		config:   cfg,
	}
}

// RegisterRoutes registers the callback route.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/:provider/callback", c.Callback)
}

// Callback handles the provider callback: it fetches the profile, resolves
// the login, sets the identity cookie, and redirects.
func (c *HTTPController) Callback(ctx router.Context) error {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if errCode := ctx.Query("error"); errCode != "" {
		errDesc := ctx.Query("error_description")
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "oauth_error", errCode)
		if errDesc != "" {
			redirectURL = appendQueryParam(redirectURL, "desc", errDesc)
		}
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	if code == "" || state == "" {
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", "missing_params")
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	req := &LoginRequest{
		Kind:     RequestKindOAuth2Login,
		Provider: provider,
		Code:     code,
		State:    state,
	}

	principal := Anonymous()
	if c.config.Principal != nil {
		principal = c.config.Principal(ctx)
	}

	resolution, err := c.resolver.Authenticate(ctx.Context(), req, principal)
	if err != nil {
		return c.handleError(ctx, err)
	}

	if resolution.Token != "" {
		c.setAuthCookie(ctx, resolution.Token)
	}

	redirectURL := c.config.SuccessRedirect
	if resolution.NewUser {
		redirectURL = appendQueryParam(redirectURL, "new_user", "true")
	}
	if resolution.Bound {
		redirectURL = appendQueryParam(redirectURL, "bound", "true")
	}

	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func (c *HTTPController) setAuthCookie(ctx router.Context, token string) {
	ctx.Cookie(&router.Cookie{
		Name:     c.config.CookieName,
		Value:    token,
		Path:     "/",
		Secure:   c.config.CookieSecure,
		HTTPOnly: c.config.CookieHTTPOnly,
		SameSite: c.config.CookieSameSite,
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.config.ErrorHandler != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", err.Error())
	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func appendQueryParam(rawURL, key, value string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err == nil {
		query := parsed.Query()
		query.Set(key, value)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
