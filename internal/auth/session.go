package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie's name.
const CookieName = "induction_session"

// ErrNoSession is returned when a request carries no usable session.
var ErrNoSession = errors.New("auth: no session")

// Session is the per-login state carried in the cookie. ID keys the
// session's staged import rows.
type Session struct {
	ID        string
	UserID    string
	Username  string
	Role      string
	ExpiresAt time.Time
}

type claims struct {
	Username string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and parses session cookies with HS256.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec using secret for signing and ttl for expiry.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewSession starts a session for a verified identity.
func (c *Codec) NewSession(id Identity) Session {
	return Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Username:  id.Username,
		Role:      id.Role,
		ExpiresAt: c.now().Add(c.ttl).Truncate(time.Second),
	}
}

// Encode signs a session into a token.
func (c *Codec) Encode(s Session) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: s.Username,
		Role:     s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies a token and returns its session.
func (c *Codec) Decode(token string) (Session, error) {
	var cl claims
	parsed, err := jwt.ParseWithClaims(token, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if cl.ID == "" || cl.Role == "" {
		return Session{}, fmt.Errorf("%w: incomplete claims", ErrNoSession)
	}
	s := Session{
		ID:       cl.ID,
		UserID:   cl.Subject,
		Username: cl.Username,
		Role:     cl.Role,
	}
	if cl.ExpiresAt != nil {
		s.ExpiresAt = cl.ExpiresAt.Time
	}
	return s, nil
}

// SetCookie writes the signed session to the response.
func (c *Codec) SetCookie(w http.ResponseWriter, s Session) error {
	token, err := c.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest decodes the session cookie on r.
func (c *Codec) FromRequest(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrNoSession
	}
	return c.Decode(cookie.Value)
}
