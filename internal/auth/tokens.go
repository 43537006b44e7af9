// Package auth issues and checks the JWT pairs and password hashes of the ledger server.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.com/lfmsh/bank/models"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"

	TokenTypeBearer = "bearer"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenKind = errors.New("wrong token type")
)

// Claims are the registered claims plus the token kind. Subject holds the user id.
type Claims struct {
	Kind TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue returns a fresh access and refresh token for userID.
func (i *Issuer) Issue(userID uint) (models.TokenPair, error) {
	access, err := i.sign(userID, AccessToken, i.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := i.sign(userID, RefreshToken, i.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

// IssueAccess returns only a new access token, as done on refresh.
func (i *Issuer) IssueAccess(userID uint) (string, error) {
	return i.sign(userID, AccessToken, i.accessTTL)
}

func (i *Issuer) sign(userID uint, kind TokenKind, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("unable to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse validates token and returns the user id it was issued for.
func (i *Issuer) Parse(token string, want TokenKind) (uint, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return 0, fmt.Errorf("%w: missing expiration", ErrInvalidToken)
	}
	if claims.Kind != want {
		return 0, ErrWrongTokenKind
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(id), nil
}
