package account

import (
    "context"
    "time"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// Store is the slice of the credential store the lifecycle manager needs.
// *repository.AccountRepo satisfies it; tests use accounttest.Store.
type Store interface {
    Create(ctx context.Context, a *model.Account) error
    GetByID(ctx context.Context, id uint64) (*model.Account, error)
    GetByEmail(ctx context.Context, email string) (*model.Account, error)
    GetByFederated(ctx context.Context, provider, subject string) (*model.Account, error)
    UsernameExists(ctx context.Context, username string) (bool, error)
    EmailExists(ctx context.Context, email string) (bool, error)
    LinkFederated(ctx context.Context, id uint64, provider, subject string) error
    SetBlock(ctx context.Context, id uint64, until time.Time) error
    ClearBlock(ctx context.Context, id uint64) error
    UpdateProfile(ctx context.Context, id uint64, fullName, phone string) error
    UpdatePassword(ctx context.Context, id uint64, hash string) error
    UpdateRole(ctx context.Context, id uint64, roleID uint8) error
    Delete(ctx context.Context, id uint64) error
    List(ctx context.Context) ([]*model.Account, error)
}

// RoleStore resolves seeded roles.
type RoleStore interface {
    GetByName(ctx context.Context, name model.RoleName) (model.Role, error)
    GetByID(ctx context.Context, id uint8) (model.Role, error)
}
