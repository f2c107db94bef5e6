package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/cppla/docportal/config"
)

const (
	// RememberMeTTL is the session lifetime when "remember me" is ticked.
	RememberMeTTL = 30 * 24 * time.Hour
	// DefaultSessionTTL is the session lifetime otherwise.
	DefaultSessionTTL = 24 * time.Hour
)

// ErrNoSession is returned when the request carries no usable session cookie.
var ErrNoSession = errors.New("no session")

// SessionClaims is the identity stored in the signed session cookie.
type SessionClaims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"name"`
	Avatar   string `json:"avatar"`
	CanPost  bool   `json:"can_post"`
	jwt.RegisteredClaims
}

// SessionManager issues and reads the session cookie. The cookie value is an
// HS256 token so the server keeps no session table; logout revokes the token.
type SessionManager struct {
	secret     []byte
	cookieName string
	secure     bool
}

func NewSessionManager(cfg config.SessionConfig) *SessionManager {
	name := cfg.CookieName
	if name == "" {
		name = "portal_session"
	}
	return &SessionManager{secret: []byte(cfg.Secret), cookieName: name, secure: cfg.Secure}
}

// Issue signs claims and sets the cookie with the matching max-age.
func (m *SessionManager) Issue(ctx *gin.Context, claims SessionClaims, rememberMe bool) (string, error) {
	ttl := DefaultSessionTTL
	if rememberMe {
		ttl = RememberMeTTL
	}
	token, err := m.Sign(claims, ttl)
	if err != nil {
		return "", err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(m.cookieName, token, int(ttl.Seconds()), "/", "", m.secure, true)
	return token, nil
}

// Sign produces a token valid for ttl.
func (m *SessionManager) Sign(claims SessionClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	return signed, errors.Wrap(err, "sign session")
}

// Read returns the claims of the current request's session.
func (m *SessionManager) Read(ctx *gin.Context) (*SessionClaims, string, error) {
	raw, err := ctx.Cookie(m.cookieName)
	if err != nil || raw == "" {
		return nil, "", ErrNoSession
	}
	if IsTokenRevoked(raw) {
		return nil, "", ErrNoSession
	}
	claims, err := m.Parse(raw)
	if err != nil {
		return nil, "", err
	}
	return claims, raw, nil
}

// Parse validates the signature and expiry of a token.
func (m *SessionManager) Parse(raw string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrNoSession, err.Error())
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrNoSession
	}
	return claims, nil
}

// Destroy revokes the current token until its natural expiry and clears the cookie.
func (m *SessionManager) Destroy(ctx *gin.Context) {
	if raw, err := ctx.Cookie(m.cookieName); err == nil && raw != "" {
		if claims, err := m.Parse(raw); err == nil && claims.ExpiresAt != nil {
			RevokeToken(raw, claims.ExpiresAt.Time)
		}
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
