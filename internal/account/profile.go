package account

import (
    "context"
    "fmt"
    "strings"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/utils"
)

// Profile re-reads the caller's account.
func (s *Service) Profile(ctx context.Context, id uint64) (*model.Account, error) {
    return s.find(ctx, id)
}

// UpdateProfile changes display name and phone and returns the new state.
func (s *Service) UpdateProfile(ctx context.Context, id uint64, fullName, phone string) (*model.Account, error) {
    fullName = strings.TrimSpace(fullName)
    if fullName == "" {
        return nil, fmt.Errorf("%w: full_name is required", apperr.ErrValidation)
    }
    if _, err := s.find(ctx, id); err != nil {
        return nil, err
    }
    if err := s.accounts.UpdateProfile(ctx, id, fullName, strings.TrimSpace(phone)); err != nil {
        return nil, err
    }
    return s.find(ctx, id)
}

// ChangePassword sets a new password.  Accounts that already have one must
// present it; federated-only accounts may set a first password directly.
func (s *Service) ChangePassword(ctx context.Context, id uint64, current, next string) error {
    if len(next) < 6 {
        return fmt.Errorf("%w: new password must be at least 6 characters", apperr.ErrValidation)
    }
    if err := checkPasswordLength(next); err != nil {
        return err
    }
    a, err := s.find(ctx, id)
    if err != nil {
        return err
    }
    if a.HasPassword() && !utils.VerifyPassword(a.PasswordHash, current) {
        s.metrics.Auth("change_password", "bad_credentials")
        return fmt.Errorf("%w: current password is incorrect", apperr.ErrUnauthorized)
    }
    hash, err := utils.HashPassword(next, s.cost)
    if err != nil {
        return err
    }
    if err := s.accounts.UpdatePassword(ctx, id, hash); err != nil {
        return err
    }
    s.metrics.Auth("change_password", "success")
    return nil
}
