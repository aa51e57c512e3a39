// Package token issues and verifies the two classes of signed session
// tokens: short-lived access tokens and long-lived refresh tokens.  Each
// class has its own HMAC secret and lifetime.  Verification is stateless;
// refresh-token reuse detection lives in the session cache.
package token

import (
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// Class distinguishes access from refresh tokens inside the claims.
type Class string

const (
    Access  Class = "access"
    Refresh Class = "refresh"
)

var (
    // ErrInvalidToken is returned for any token that must not be trusted.
    ErrInvalidToken = errors.New("invalid token")
    // ErrTokenExpired wraps ErrInvalidToken; callers may use it for messaging
    // only, never for trust decisions.
    ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Claims is the signed payload of both token classes.
type Claims struct {
    AccountID uint64 `json:"id"`
    Class     Class  `json:"typ"`
    jwt.RegisteredClaims
}

// Issued is a signed token together with its expiry.
type Issued struct {
    Token     string
    ExpiresAt time.Time
}

// Config carries the secrets and lifetimes.  Both secrets are required.
type Config struct {
    AccessSecret  string
    RefreshSecret string
    AccessTTL     time.Duration
    RefreshTTL    time.Duration
}

// Service signs and verifies tokens.  It holds no mutable state and is safe
// for concurrent use.
type Service struct {
    accessSecret  []byte
    refreshSecret []byte
    accessTTL     time.Duration
    refreshTTL    time.Duration
    now           func() time.Time
}

// NewService builds a Service.  Zero lifetimes default to 15 minutes and
// 7 days.
func NewService(cfg Config) *Service {
    s := &Service{
        accessSecret:  []byte(cfg.AccessSecret),
        refreshSecret: []byte(cfg.RefreshSecret),
        accessTTL:     cfg.AccessTTL,
        refreshTTL:    cfg.RefreshTTL,
        now:           time.Now,
    }
    if s.accessTTL <= 0 {
        s.accessTTL = 15 * time.Minute
    }
    if s.refreshTTL <= 0 {
        s.refreshTTL = 7 * 24 * time.Hour
    }
    return s
}

// WithClock returns a copy of s that reads time from now.  Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
    cp := *s
    cp.now = now
    return &cp
}

// AccessTTL is the lifetime of access tokens.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens; the session cache entry
// mirrors it.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs an access token for accountID.
func (s *Service) IssueAccess(accountID uint64) (Issued, error) {
    return s.issue(accountID, Access, s.accessSecret, s.accessTTL)
}

// IssueRefresh signs a refresh token for accountID.
func (s *Service) IssueRefresh(accountID uint64) (Issued, error) {
    return s.issue(accountID, Refresh, s.refreshSecret, s.refreshTTL)
}

// Verify checks raw against the secret of the given class and returns the
// account id it carries.  Expired tokens yield ErrTokenExpired, everything
// else untrustworthy yields ErrInvalidToken.
func (s *Service) Verify(raw string, class Class) (uint64, error) {
    switch class {
    case Access:
        return s.verify(raw, s.accessSecret, Access)
    case Refresh:
        return s.verify(raw, s.refreshSecret, Refresh)
    }
    return 0, ErrInvalidToken
}

// VerifyAccess returns the account id carried by a valid access token.
func (s *Service) VerifyAccess(raw string) (uint64, error) {
    return s.verify(raw, s.accessSecret, Access)
}

// VerifyRefresh returns the account id carried by a valid refresh token.
func (s *Service) VerifyRefresh(raw string) (uint64, error) {
    return s.verify(raw, s.refreshSecret, Refresh)
}

func (s *Service) issue(accountID uint64, class Class, secret []byte, ttl time.Duration) (Issued, error) {
    now := s.now().UTC()
    exp := now.Add(ttl)
    claims := Claims{
        AccountID: accountID,
        Class:     class,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(accountID, 10),
            ID:        uuid.NewString(), // two tokens issued in the same second still differ
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
    if err != nil {
        return Issued{}, fmt.Errorf("sign %s token: %w", class, err)
    }
    // exp is truncated to whole seconds inside the token; report the same value.
    return Issued{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) verify(raw string, secret []byte, class Class) (uint64, error) {
    if raw == "" || len(secret) == 0 {
        return 0, ErrInvalidToken
    }
    var claims Claims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return secret, nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(s.now),
    )
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return 0, ErrTokenExpired
        }
        return 0, ErrInvalidToken
    }
    if !tok.Valid || claims.Class != class || claims.AccountID == 0 {
        return 0, ErrInvalidToken
    }
    return claims.AccountID, nil
}
