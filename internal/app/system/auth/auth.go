package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Token claims                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	claimSubject = "sub"
	claimName    = "name"
	claimEmail   = "email"
	claimRole    = "role"
)

// ErrWeakSecret is returned when the signing secret is empty.
var ErrWeakSecret = errors.New("jwt secret is empty; provide ≥32 random chars")

// SessionUser is what we carry in the token & inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context, bypassing token
// verification. Handler tests use it.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manager                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Manager issues and verifies HS256 bearer tokens.
type Manager struct {
	ja     *jwtauth.JWTAuth
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager builds a Manager. Tokens expire after ttl.
func NewManager(secret string, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, ErrWeakSecret
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		ja:     jwtauth.New("HS256", []byte(secret), nil),
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Issue signs a token for u and returns it with its expiry.
func (m *Manager) Issue(u SessionUser) (string, time.Time, error) {
	exp := time.Now().Add(m.ttl)
	claims := map[string]interface{}{
		claimSubject: u.ID,
		claimName:    u.Name,
		claimEmail:   u.Email,
		claimRole:    strings.ToLower(u.Role),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, exp)

	_, tok, err := m.ja.Encode(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

// LoadUser verifies a bearer token (Authorization header or "jwt" cookie)
// and injects the user into context when it is valid. Requests without a
// valid token pass through unauthenticated.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	inject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && claims != nil {
			u := &SessionUser{
				ID:    claimString(claims, claimSubject),
				Name:  claimString(claims, claimName),
				Email: claimString(claims, claimEmail),
				Role:  claimString(claims, claimRole),
			}
			if u.ID != "" {
				r = withUser(r, u)
			}
		} else if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
			m.logger.Debug("rejected bearer token", zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
	return jwtauth.Verifier(m.ja)(inject)
}

// RequireSignedIn ensures there is a user in context (set by LoadUser).
// Callers without one get 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the user in context has one of the allowed roles.
// No user gives 401; a user with another role gives 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":"error","message":%q}`, msg)
}
