// Package account is the account lifecycle manager: registration,
// credential and federated login, refresh, logout, blocking and the
// per-request authentication pipeline used by the access-control
// middleware.
package account

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/metrics"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/queue"
    "github.com/iliyamo/portfolio-blog/internal/repository"
    "github.com/iliyamo/portfolio-blog/internal/session"
    "github.com/iliyamo/portfolio-blog/internal/token"
    "github.com/iliyamo/portfolio-blog/internal/utils"
)

// Deps are the collaborators of a Service.  Events and Metrics are
// optional.
type Deps struct {
    Accounts   Store
    Roles      RoleStore
    Tokens     *token.Service
    Sessions   session.Cache
    Events     queue.Publisher
    Metrics    *metrics.Metrics
    Log        zerolog.Logger
    BcryptCost int
    Now        func() time.Time
}

// Service implements the account lifecycle.  It holds no per-request
// state and is safe for concurrent use.
type Service struct {
    accounts Store
    roles    RoleStore
    tokens   *token.Service
    sessions session.Cache
    events   queue.Publisher
    metrics  *metrics.Metrics
    log      zerolog.Logger
    cost     int
    now      func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(d Deps) *Service {
    s := &Service{
        accounts: d.Accounts,
        roles:    d.Roles,
        tokens:   d.Tokens,
        sessions: d.Sessions,
        events:   d.Events,
        metrics:  d.Metrics,
        log:      d.Log,
        cost:     d.BcryptCost,
        now:      d.Now,
    }
    if s.sessions == nil {
        s.sessions = session.NullCache{}
    }
    if s.events == nil {
        s.events = queue.NopPublisher{}
    }
    if s.cost == 0 {
        s.cost = 10
    }
    if s.now == nil {
        s.now = time.Now
    }
    return s
}

// Session is the credential pair handed out by a successful login.
type Session struct {
    Account *model.Account
    Access  token.Issued
    Refresh token.Issued
}

// RegisterInput carries the signup form.  RoleID is optional; without it
// the account receives the USER role.
type RegisterInput struct {
    Username string
    Email    string
    Password string
    FullName string
    Phone    string
    RoleID   *uint8
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
    in.Username = strings.TrimSpace(in.Username)
    in.Email = repository.NormalizeEmail(in.Email)
    in.FullName = strings.TrimSpace(in.FullName)
    if in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "" {
        return nil, fmt.Errorf("%w: username, email, password and full_name are required", apperr.ErrValidation)
    }
    if err := checkPasswordLength(in.Password); err != nil {
        return nil, err
    }

    taken, err := s.accounts.UsernameExists(ctx, in.Username)
    if err != nil {
        return nil, err
    }
    if taken {
        s.metrics.Auth("register", "conflict")
        return nil, fmt.Errorf("%w: username already exists", apperr.ErrConflict)
    }
    taken, err = s.accounts.EmailExists(ctx, in.Email)
    if err != nil {
        return nil, err
    }
    if taken {
        s.metrics.Auth("register", "conflict")
        return nil, fmt.Errorf("%w: email already exists", apperr.ErrConflict)
    }

    role, err := s.resolveRole(ctx, in.RoleID)
    if err != nil {
        return nil, err
    }
    hash, err := utils.HashPassword(in.Password, s.cost)
    if err != nil {
        return nil, err
    }

    a := &model.Account{
        Username:     in.Username,
        Email:        in.Email,
        PasswordHash: hash,
        FullName:     in.FullName,
        Phone:        strings.TrimSpace(in.Phone),
        Role:         role,
    }
    if err := s.accounts.Create(ctx, a); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            // lost a race with a concurrent signup
            return nil, fmt.Errorf("%w: username or email already exists", apperr.ErrConflict)
        }
        return nil, err
    }
    s.metrics.Auth("register", "success")
    s.publish(ctx, queue.AccountEvent{Type: queue.EventRegistered, AccountID: a.ID, Username: a.Username})
    return a, nil
}

func (s *Service) resolveRole(ctx context.Context, id *uint8) (model.Role, error) {
    if id == nil {
        return s.roles.GetByName(ctx, model.RoleUser)
    }
    role, err := s.roles.GetByID(ctx, *id)
    if errors.Is(err, repository.ErrNotFound) {
        return model.Role{}, fmt.Errorf("%w: unknown role_id %d", apperr.ErrValidation, *id)
    }
    return role, err
}

// Login checks credentials, applies the block check and opens a session.
// An unknown email and a wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
    a, err := s.accounts.GetByEmail(ctx, email)
    if errors.Is(err, repository.ErrNotFound) {
        s.metrics.Auth("login", "bad_credentials")
        return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
    }
    if err != nil {
        return nil, err
    }
    if !a.HasPassword() || !utils.VerifyPassword(a.PasswordHash, password) {
        s.metrics.Auth("login", "bad_credentials")
        return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
    }
    if err := s.EnforceBlock(ctx, a); err != nil {
        s.metrics.Auth("login", "blocked")
        return nil, err
    }
    sess, err := s.openSession(ctx, a)
    if err != nil {
        return nil, err
    }
    s.metrics.Auth("login", "success")
    return sess, nil
}

// openSession issues both tokens and records the refresh token as the
// account's only live one, replacing whatever was cached before.
func (s *Service) openSession(ctx context.Context, a *model.Account) (*Session, error) {
    access, err := s.tokens.IssueAccess(a.ID)
    if err != nil {
        return nil, fmt.Errorf("issue access token: %w", err)
    }
    refresh, err := s.tokens.IssueRefresh(a.ID)
    if err != nil {
        return nil, fmt.Errorf("issue refresh token: %w", err)
    }
    if err := s.sessions.Put(ctx, a.ID, refresh.Token, s.tokens.RefreshTTL()); err != nil {
        return nil, fmt.Errorf("cache refresh token: %w", err)
    }
    return &Session{Account: a, Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.  The refresh
// token itself is not rotated.  When the session cache is live the
// presented token must equal the cached one; a degraded cache trusts the
// signature alone.
func (s *Service) Refresh(ctx context.Context, raw string) (token.Issued, error) {
    if raw == "" {
        s.metrics.Auth("refresh", "missing")
        return token.Issued{}, fmt.Errorf("%w: refresh token missing", apperr.ErrUnauthorized)
    }
    id, err := s.tokens.VerifyRefresh(raw)
    if err != nil {
        s.metrics.Auth("refresh", "invalid")
        return token.Issued{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
    }

    if s.sessions.Live() {
        cached, found, err := s.sessions.Get(ctx, id)
        if err != nil {
            return token.Issued{}, fmt.Errorf("read session cache: %w", err)
        }
        if !found || cached != raw {
            s.metrics.Auth("refresh", "stale")
            return token.Issued{}, fmt.Errorf("%w: refresh token is no longer valid", apperr.ErrUnauthorized)
        }
    }

    a, err := s.load(ctx, id)
    if err != nil {
        return token.Issued{}, err
    }
    if err := s.EnforceBlock(ctx, a); err != nil {
        s.metrics.Auth("refresh", "blocked")
        return token.Issued{}, err
    }

    access, err := s.tokens.IssueAccess(id)
    if err != nil {
        return token.Issued{}, fmt.Errorf("issue access token: %w", err)
    }
    s.metrics.Auth("refresh", "success")
    return access, nil
}

// Logout forgets the cached refresh token when the presented one verifies.
// It never fails: every problem is logged and swallowed.
func (s *Service) Logout(ctx context.Context, raw string) {
    s.metrics.Auth("logout", "success")
    if raw == "" {
        return
    }
    id, err := s.tokens.VerifyRefresh(raw)
    if err != nil {
        s.log.Debug().Err(err).Msg("logout with unverifiable refresh token")
        return
    }
    if err := s.sessions.Delete(ctx, id); err != nil {
        s.log.Warn().Err(err).Uint64("account_id", id).Msg("logout: dropping cached refresh token failed")
    }
}

// load fetches an account for a token subject; a vanished account is an
// authentication failure rather than a 404.
func (s *Service) load(ctx context.Context, id uint64) (*model.Account, error) {
    a, err := s.accounts.GetByID(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, fmt.Errorf("%w: account no longer exists", apperr.ErrUnauthorized)
    }
    return a, err
}

// find fetches a target account on administrative and profile paths.
func (s *Service) find(ctx context.Context, id uint64) (*model.Account, error) {
    a, err := s.accounts.GetByID(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, fmt.Errorf("%w: account %d", apperr.ErrNotFound, id)
    }
    return a, err
}

func (s *Service) publish(ctx context.Context, ev queue.AccountEvent) {
    ev.OccurredAt = s.now().UTC()
    if err := s.events.Publish(ctx, ev); err != nil {
        s.log.Warn().Err(err).Str("event", ev.Type).Uint64("account_id", ev.AccountID).Msg("publish account event failed")
    }
}

// dropSession removes the cached refresh token after the account was
// blocked or deleted.
func (s *Service) dropSession(ctx context.Context, id uint64) {
    if err := s.sessions.Delete(ctx, id); err != nil {
        s.log.Warn().Err(err).Uint64("account_id", id).Msg("dropping cached refresh token failed")
    }
}

// checkPasswordLength rejects passwords bcrypt would refuse to hash.
func checkPasswordLength(password string) error {
    if len(password) > utils.MaxPasswordBytes {
        return fmt.Errorf("%w: password must be at most %d bytes", apperr.ErrValidation, utils.MaxPasswordBytes)
    }
    return nil
}
