package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/types"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is the identity carried by the session token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// Sessions reads and issues HS256 session tokens.
type Sessions struct {
	secret     []byte
	cookieName string
	log        *zap.SugaredLogger
}

func NewSessions(cfg *config.Config, log *zap.SugaredLogger) *Sessions {
	return &Sessions{secret: []byte(cfg.Session.JWTSecret), cookieName: cfg.Session.CookieName, log: log}
}

func (s *Sessions) CookieName() string { return s.cookieName }

// Issue signs a session token for email.
func (s *Sessions) Issue(email string, ttl time.Duration, now time.Time) (string, error) {
	claims := SessionClaims{
		Email: types.NormalizeEmail(email),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates token and returns the normalized email claim.
func (s *Sessions) Parse(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: no session secret configured", ErrInvalidSession)
	}
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", errors.Join(ErrInvalidSession, err)
	}
	email := types.NormalizeEmail(claims.Email)
	if email == "" {
		return "", fmt.Errorf("%w: missing email claim", ErrInvalidSession)
	}
	return email, nil
}

func (s *Sessions) tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if s.cookieName != "" {
		if v, err := c.Cookie(s.cookieName); err == nil {
			return v
		}
	}
	return ""
}

// ClearCookie ends the browser session.
func (s *Sessions) ClearCookie(c *gin.Context) {
	if s.cookieName == "" {
		return
	}
	c.SetCookie(s.cookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}

// SessionMiddleware resolves the caller's email. A missing or invalid token
// leaves the request anonymous; the gate decides what anonymous may reach.
func SessionMiddleware(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.tokenFrom(c)
		if token == "" {
			c.Next()
			return
		}
		email, err := s.Parse(token)
		if err != nil {
			logctx.FromGin(c, s.log).Debugw("session_rejected", "err", err)
			c.Next()
			return
		}
		c.Set(logctx.KeyUserEmail, email)
		c.Request = c.Request.WithContext(logctx.WithValue(c.Request.Context(), logctx.KeyUserEmail, email))
		c.Next()
	}
}

// UserEmail returns the authenticated email, or "".
func UserEmail(c *gin.Context) string {
	return c.GetString(logctx.KeyUserEmail)
}
