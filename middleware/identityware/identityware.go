package identityware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup     = "header:" + router.HeaderAuthorization
	ErrTokenMissingOrEmpty = errors.New("missing bearer token")
	ErrSchemeMismatch      = errors.New("authorization scheme mismatch")
)

// TokenValidator mirrors the token service Validate method without an
// import cycle.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims mirrors the verified session claims without an import
// cycle.
type AuthClaims interface {
	Subject() string
	UserID() string
}

// Identity is the per-request outcome stored in the router locals and
// the standard context. Anonymous when no valid token was presented.
type Identity struct {
	Authenticated bool
	Subject       string
	Claims        AuthClaims
}

type Config struct {
	Filter func(router.Context) bool

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// ContextKey is the locals key the Identity is stored under.
	// Default: "identity".
	ContextKey string

	// TokenLookup tells the middleware where to find the token, e.g.
	// "header:Authorization,cookie:jwt". Default: header:Authorization.
	TokenLookup string

	// AuthScheme is the expected Authorization scheme. Default: "Bearer".
	AuthScheme string

	// ContextEnricher propagates the identity to the standard Go
	// context so non-router code can read it.
	ContextEnricher func(c context.Context, identity Identity) context.Context

	// OnRejected is invoked when a token was presented but failed
	// verification. The request still proceeds anonymously, this is a
	// hook for logging or metrics.
	OnRejected func(ctx router.Context, err error)
}

// New builds the identity middleware. Unlike a gatekeeper middleware it
// NEVER fails the surrounding request: an absent header, a malformed
// header, or a token that fails verification all yield an anonymous
// identity and the request proceeds. Each downstream operation decides
// for itself whether it requires authentication.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			identity := Identity{}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err == nil && raw != "" {
				claims, verr := cfg.TokenValidator.Validate(raw)
				if verr == nil {
					identity = Identity{
						Authenticated: true,
						Subject:       claims.Subject(),
						Claims:        claims,
					}
				} else if cfg.OnRejected != nil {
					cfg.OnRejected(ctx, verr)
				}
			}

			ctx.Locals(cfg.ContextKey, identity)

			if cfg.ContextEnricher != nil {
				stdCtx := cfg.ContextEnricher(ctx.Context(), identity)
				ctx.SetContext(stdCtx)
			}

			return ctx.Next()
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("identityware: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

type TokenExtractor func(c router.Context) (string, error)

// tokenFromHeader returns a function that extracts the token from the
// request header.
func tokenFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.Header(header)
		if a == "" {
			return "", ErrTokenMissingOrEmpty
		}

		authScheme = strings.TrimSpace(authScheme)
		l := len(authScheme)
		if l == 0 {
			return strings.TrimSpace(a), nil
		}

		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}

		return "", ErrSchemeMismatch
	}
}

// tokenFromQuery returns a function that extracts the token from the
// query string.
func tokenFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissingOrEmpty
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts the token from the
// named cookie.
func tokenFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrEmpty
		}
		return token, nil
	}
}
