package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Trigger string

const (
	TriggerSignIn  Trigger = "SignIn"
	TriggerSignUp  Trigger = "SignUp"
	TriggerUpdate  Trigger = "Update"
	TriggerRefresh Trigger = "Refresh"
)

// TokenEvent is the input of ApplyTrigger. UserID and Role are only read
// on SignIn and SignUp; Name only on SignIn, SignUp and Update.
type TokenEvent struct {
	Trigger Trigger
	UserID  string
	Role    string
	Name    string
	Email   string
}

type Claims struct {
	UserID string `json:"sub_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("jwt secret is not set")
)

// ApplyTrigger returns the claims that follow prev after ev. prev is not
// modified.
func ApplyTrigger(prev Claims, ev TokenEvent) Claims {
	next := prev

	switch ev.Trigger {
	case TriggerSignIn, TriggerSignUp:
		next.UserID = ev.UserID
		next.Role = ev.Role
		if ev.Email != "" {
			next.Email = ev.Email
		}
		if ev.Name != "" {
			next.Name = ev.Name
		}
	case TriggerUpdate:
		if ev.Name != "" {
			next.Name = ev.Name
		}
	case TriggerRefresh:
	}

	return next
}

// Issuer signs and parses HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long a signed token stays valid.
func (i *Issuer) TTL() time.Duration { return i.ttl }

func (i *Issuer) Sign(c Claims) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := i.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(i.secret)
}

func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	if len(i.secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return i.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
