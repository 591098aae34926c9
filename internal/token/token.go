package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dom/course-catalog/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which signing secret a token is issued and verified under.
type Kind string

const (
	KindAccess     Kind = "access"
	KindRefresh    Kind = "refresh"
	KindActivation Kind = "activation"
)

// PendingUser is a registration that has not been written to the user
// directory yet. It lives only inside a signed activation token.
type PendingUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

type activationClaims struct {
	User PendingUser `json:"user"`
	Code string      `json:"code"`
	jwt.RegisteredClaims
}

type Codec struct {
	secrets map[Kind][]byte
}

func NewCodec(accessSecret, refreshSecret, activationSecret string) *Codec {
	return &Codec{
		secrets: map[Kind][]byte{
			KindAccess:     []byte(accessSecret),
			KindRefresh:    []byte(refreshSecret),
			KindActivation: []byte(activationSecret),
		},
	}
}

// IssueSession signs a token carrying the user id as subject.
func (c *Codec) IssueSession(kind Kind, userID uuid.UUID, ttl time.Duration) (string, error) {
	secret, ok := c.secrets[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifySession verifies a token under the given kind's secret and returns
// the subject user id. Malformed, forged, cross-kind and expired tokens all
// fail with domain.ErrInvalidToken.
func (c *Codec) VerifySession(kind Kind, tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	if err := c.parse(kind, tokenString, claims); err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return userID, nil
}

// IssueActivation encodes the pending registration and its confirmation
// code into a signed activation token. Nothing is persisted.
func (c *Codec) IssueActivation(pending PendingUser, code string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := activationClaims{
		User: pending,
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secrets[KindActivation])
}

// VerifyActivation decodes an activation token back into the pending
// registration and its code.
func (c *Codec) VerifyActivation(tokenString string) (PendingUser, string, error) {
	claims := &activationClaims{}
	if err := c.parse(KindActivation, tokenString, claims); err != nil {
		return PendingUser{}, "", err
	}
	return claims.User, claims.Code, nil
}

func (c *Codec) parse(kind Kind, tokenString string, claims jwt.Claims) error {
	secret, ok := c.secrets[kind]
	if !ok {
		return fmt.Errorf("unknown token kind %q", kind)
	}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.ErrInvalidToken
	}
	return nil
}

// NewActivationCode returns a random 6-digit confirmation code.
func NewActivationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
