package account

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/queue"
    "github.com/iliyamo/portfolio-blog/internal/repository"
)

// maxBlockHours caps a block at 100 years so the expiry stays representable.
const maxBlockHours = 100 * 365 * 24

// Block suspends the target for the given number of hours and returns the
// expiry.  Administrators cannot be blocked.  The target's cached refresh
// token is dropped so no new access token can be minted; access tokens
// already issued are rejected by the block check on their next use.
func (s *Service) Block(ctx context.Context, actor *model.Account, targetID uint64, hours float64) (time.Time, error) {
    if !(hours > 0) {
        return time.Time{}, fmt.Errorf("%w: blockDuration must be a positive number of hours", apperr.ErrValidation)
    }
    if hours > maxBlockHours {
        return time.Time{}, fmt.Errorf("%w: blockDuration must be at most %d hours", apperr.ErrValidation, maxBlockHours)
    }
    target, err := s.find(ctx, targetID)
    if err != nil {
        return time.Time{}, err
    }
    if target.IsAdmin() {
        return time.Time{}, fmt.Errorf("%w: administrators cannot be blocked", apperr.ErrForbidden)
    }

    until := s.now().UTC().Add(time.Duration(hours * float64(time.Hour))).Truncate(time.Second)
    if err := s.accounts.SetBlock(ctx, targetID, until); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return time.Time{}, fmt.Errorf("%w: account %d", apperr.ErrNotFound, targetID)
        }
        return time.Time{}, err
    }
    s.dropSession(ctx, targetID)
    s.publish(ctx, queue.AccountEvent{Type: queue.EventBlocked, AccountID: targetID,
        Username: target.Username, ActorID: actorID(actor), BlockedUntil: &until})
    return until, nil
}

// Unblock clears any block on the target.  Unblocking an account that is
// not blocked succeeds.
func (s *Service) Unblock(ctx context.Context, actor *model.Account, targetID uint64) error {
    target, err := s.find(ctx, targetID)
    if err != nil {
        return err
    }
    if err := s.accounts.ClearBlock(ctx, targetID); err != nil {
        return err
    }
    s.publish(ctx, queue.AccountEvent{Type: queue.EventUnblocked, AccountID: targetID,
        Username: target.Username, ActorID: actorID(actor)})
    return nil
}

// Delete removes the target account; storage cascades its content.
func (s *Service) Delete(ctx context.Context, actor *model.Account, targetID uint64) error {
    if targetID == 0 {
        return fmt.Errorf("%w: userId is required", apperr.ErrValidation)
    }
    target, err := s.find(ctx, targetID)
    if err != nil {
        return err
    }
    if err := s.accounts.Delete(ctx, targetID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fmt.Errorf("%w: account %d", apperr.ErrNotFound, targetID)
        }
        return err
    }
    s.dropSession(ctx, targetID)
    s.publish(ctx, queue.AccountEvent{Type: queue.EventDeleted, AccountID: targetID,
        Username: target.Username, ActorID: actorID(actor)})
    return nil
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]*model.Account, error) {
    return s.accounts.List(ctx)
}

// Get returns one account for the admin view.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Account, error) {
    return s.find(ctx, id)
}

// ChangeRole assigns a seeded role to the target and returns the updated
// account.
func (s *Service) ChangeRole(ctx context.Context, targetID uint64, name model.RoleName) (*model.Account, error) {
    if !name.Valid() {
        return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, name)
    }
    if _, err := s.find(ctx, targetID); err != nil {
        return nil, err
    }
    role, err := s.roles.GetByName(ctx, name)
    if err != nil {
        return nil, err
    }
    if err := s.accounts.UpdateRole(ctx, targetID, role.ID); err != nil {
        return nil, err
    }
    return s.find(ctx, targetID)
}

func actorID(a *model.Account) uint64 {
    if a == nil {
        return 0
    }
    return a.ID
}
