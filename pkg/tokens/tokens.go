package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is used by Issue when the caller passes a non-positive ttl.
const DefaultTTL = 15 * time.Minute

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims binds a token to both the user id and the username it was
// issued for. A token stops resolving once either no longer matches.
type AccessClaims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// SigningMethod resolves a symmetric algorithm name. Only the HMAC family is accepted.
func SigningMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", alg)
	}
}

func NewIssuer(secret []byte, alg string) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	method, err := SigningMethod(alg)
	if err != nil {
		return nil, err
	}
	return &Issuer{secret: secret, method: method, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Algorithm() string { return i.method.Alg() }

// Issue signs a token for userID under subject. Claim times have second
// precision, so exp is rounded up to the next whole second: the token stays
// valid for at least ttl and the returned expiry equals the exp claim.
func (i *Issuer) Issue(subject string, userID uint, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}
	if userID == 0 {
		return "", time.Time{}, errors.New("token user id is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := i.now()
	exp := ceilSecond(now.Add(ttl))
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

// Verify checks signature, algorithm and expiry and returns the subject claim.
// Every failure is reported as ErrInvalidToken; expiry additionally wraps
// jwt.ErrTokenExpired.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	claims, err := i.Claims(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *Issuer) Claims(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return &claims, nil
}
