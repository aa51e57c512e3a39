package account

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "strings"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/queue"
    "github.com/iliyamo/portfolio-blog/internal/repository"
    "github.com/iliyamo/portfolio-blog/internal/utils"
)

// Identity is an external identity already verified by a provider.
type Identity struct {
    Provider    string
    Subject     string
    Email       string
    DisplayName string
}

// maxUsernameAttempts bounds the collision search.
const maxUsernameAttempts = 1000

// ProvisionFederated returns the account linked to id, linking an existing
// account with the same email or creating a new one when necessary.  An
// account keeps its first provider link; signing in through another
// provider with the same email reaches the account without relinking it.
func (s *Service) ProvisionFederated(ctx context.Context, id Identity) (*model.Account, error) {
    if id.Provider == "" || id.Subject == "" {
        return nil, fmt.Errorf("%w: provider identity incomplete", apperr.ErrValidation)
    }

    a, err := s.accounts.GetByFederated(ctx, id.Provider, id.Subject)
    if err == nil {
        return a, nil
    }
    if !errors.Is(err, repository.ErrNotFound) {
        return nil, err
    }

    email := repository.NormalizeEmail(id.Email)
    if email == "" {
        return nil, fmt.Errorf("%w: provider did not return an email address", apperr.ErrValidation)
    }

    existing, err := s.accounts.GetByEmail(ctx, email)
    switch {
    case err == nil && existing.FederatedProvider != "":
        s.log.Info().Uint64("account_id", existing.ID).Str("linked", existing.FederatedProvider).
            Str("provider", id.Provider).Msg("email matched an account linked to another provider")
        return existing, nil
    case err == nil:
        if err := s.accounts.LinkFederated(ctx, existing.ID, id.Provider, id.Subject); err != nil {
            return nil, err
        }
        existing.FederatedProvider, existing.FederatedSubject = id.Provider, id.Subject
        s.publish(ctx, queue.AccountEvent{Type: queue.EventFederatedLinked, AccountID: existing.ID,
            Username: existing.Username, Provider: id.Provider})
        return existing, nil
    case !errors.Is(err, repository.ErrNotFound):
        return nil, err
    }

    username, err := s.uniqueUsername(ctx, usernameBase(id))
    if err != nil {
        return nil, err
    }
    role, err := s.roles.GetByName(ctx, model.RoleUser)
    if err != nil {
        return nil, err
    }
    fullName := strings.TrimSpace(id.DisplayName)
    if fullName == "" {
        fullName = username
    }
    a = &model.Account{
        Username:          username,
        Email:             email,
        FullName:          fullName,
        Role:              role,
        FederatedProvider: id.Provider,
        FederatedSubject:  id.Subject,
    }
    if err := s.accounts.Create(ctx, a); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, fmt.Errorf("%w: account for this identity already exists", apperr.ErrConflict)
        }
        return nil, err
    }
    s.metrics.Auth("federated_provision", "success")
    s.publish(ctx, queue.AccountEvent{Type: queue.EventRegistered, AccountID: a.ID,
        Username: a.Username, Provider: id.Provider})
    return a, nil
}

// LoginFederated provisions (if needed) and opens a session exactly like a
// password login.
func (s *Service) LoginFederated(ctx context.Context, id Identity) (*Session, error) {
    a, err := s.ProvisionFederated(ctx, id)
    if err != nil {
        return nil, err
    }
    if err := s.EnforceBlock(ctx, a); err != nil {
        s.metrics.Auth("federated_login", "blocked")
        return nil, err
    }
    sess, err := s.openSession(ctx, a)
    if err != nil {
        return nil, err
    }
    s.metrics.Auth("federated_login", "success")
    return sess, nil
}

// usernameBase picks the display name, then the email local part, then a
// constant, normalized to lowercase without whitespace.
func usernameBase(id Identity) string {
    if base := utils.NormalizeUsername(id.DisplayName); base != "" {
        return base
    }
    local, _, _ := strings.Cut(id.Email, "@")
    if base := utils.NormalizeUsername(local); base != "" {
        return base
    }
    return "user"
}

// uniqueUsername returns base if free, otherwise base1, base2, ... checking
// each candidate against the store.
func (s *Service) uniqueUsername(ctx context.Context, base string) (string, error) {
    candidate := base
    for i := 1; i <= maxUsernameAttempts; i++ {
        taken, err := s.accounts.UsernameExists(ctx, candidate)
        if err != nil {
            return "", err
        }
        if !taken {
            return candidate, nil
        }
        candidate = base + strconv.Itoa(i)
    }
    return "", fmt.Errorf("%w: no free username for %q", apperr.ErrConflict, base)
}
