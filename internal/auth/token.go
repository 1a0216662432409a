package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/set-night/clickpulse/internal/domain"
)

const issuer = "clickpulse"

// Credential domains. A token minted for one is never accepted by the other.
const (
	AudienceRequester = "requester"
	AudienceWorker    = "worker"
)

// Issuer mints and checks HS256 bearer tokens for one audience.
type Issuer struct {
	secret   []byte
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewIssuer(secret, audience string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	if audience == "" {
		return nil, errors.New("empty token audience")
	}
	return &Issuer{secret: []byte(secret), audience: audience, ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) Issue(subject int64) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(subject, 10),
		Audience:  jwt.ClaimStrings{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify returns the subject id of a valid token for this audience.
func (i *Issuer) Verify(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(i.audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject", domain.ErrUnauthenticated)
	}
	return id, nil
}
