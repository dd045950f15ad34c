package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieCodec binds a session token into a signed, HTTP-only cookie.
// The cookie value is an HS256 JWT whose jti is the session token.
type CookieCodec struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieCodec constructs a codec. secure should be false only in development.
func NewCookieCodec(name string, secret []byte, ttl time.Duration, secure bool) *CookieCodec {
	return &CookieCodec{name: name, secret: secret, ttl: ttl, secure: secure, now: time.Now}
}

// Name returns the cookie name.
func (cc *CookieCodec) Name() string { return cc.name }

// Encode signs token.
func (cc *CookieCodec) Encode(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty session token")
	}
	now := cc.now()
	claims := jwt.RegisteredClaims{
		ID:        token,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cc.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cc.secret)
}

// Decode verifies value and returns the session token. Any failure reads as no session.
func (cc *CookieCodec) Decode(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return cc.secret, nil
	}, jwt.WithTimeFunc(cc.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}

// Read extracts the session token from the request cookie, or "".
func (cc *CookieCodec) Read(r *http.Request) string {
	ck, err := r.Cookie(cc.name)
	if err != nil {
		return ""
	}
	tok, _ := cc.Decode(ck.Value)
	return tok
}

// Present reports whether the request carries the cookie at all, valid or not.
func (cc *CookieCodec) Present(r *http.Request) bool {
	_, err := r.Cookie(cc.name)
	return err == nil
}

// Set writes the signed cookie for token.
func (cc *CookieCodec) Set(w http.ResponseWriter, token string) error {
	v, err := cc.Encode(token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cc.name,
		Value:    v,
		Path:     "/",
		MaxAge:   int(cc.ttl / time.Second),
		HttpOnly: true,
		Secure:   cc.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Clear expires the cookie on the client.
func (cc *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cc.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
