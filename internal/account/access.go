package account

import (
    "context"
    "fmt"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/queue"
)

// Authenticate runs the per-request pipeline behind the access cookie:
// verify the signature, load the account with its role, then apply the
// block check.  Signature and expiry failures wrap ErrUnauthorized and the
// token error so callers can phrase the message; blocked accounts yield a
// *apperr.BlockedError.
func (s *Service) Authenticate(ctx context.Context, rawAccess string) (*model.Account, error) {
    if rawAccess == "" {
        return nil, fmt.Errorf("%w: access token missing", apperr.ErrUnauthorized)
    }
    id, err := s.tokens.VerifyAccess(rawAccess)
    if err != nil {
        return nil, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
    }
    a, err := s.load(ctx, id)
    if err != nil {
        return nil, err
    }
    if err := s.EnforceBlock(ctx, a); err != nil {
        return nil, err
    }
    return a, nil
}

// EnforceBlock lets unblocked accounts through, lazily clears a block whose
// expiry has passed, and rejects everything else.  The clearing write is
// best-effort: a failure is logged and the request proceeds, and a
// duplicate write from a concurrent request is harmless.  a is updated in
// place.
func (s *Service) EnforceBlock(ctx context.Context, a *model.Account) error {
    if !a.IsBlocked {
        return nil
    }
    if !a.BlockExpired(s.now()) {
        return &apperr.BlockedError{Until: a.BlockedUntil}
    }

    if err := s.accounts.ClearBlock(ctx, a.ID); err != nil {
        s.log.Warn().Err(err).Uint64("account_id", a.ID).Msg("lazy unblock write failed")
    } else {
        s.metrics.LazyUnblock()
        s.publish(ctx, queue.AccountEvent{Type: queue.EventUnblocked, AccountID: a.ID, Username: a.Username})
    }
    a.IsBlocked = false
    a.BlockedUntil = nil
    return nil
}
