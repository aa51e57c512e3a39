package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// AccountRepo reads and writes the `users` table.  Every read joins the
// account's role so callers always receive a complete model.Account.
type AccountRepo struct {
    db *sql.DB
}

// NewAccountRepo constructs an AccountRepo over an open pool.
func NewAccountRepo(db *sql.DB) *AccountRepo {
    return &AccountRepo{db: db}
}

const selectAccount = `SELECT u.id, u.username, u.email, u.password_hash, u.full_name, u.phone,
       r.id, r.name, u.is_blocked, u.blocked_until, u.oauth_provider, u.oauth_id,
       u.created_at, u.updated_at
  FROM users u
  JOIN roles r ON r.id = u.role_id`

func scanAccount(s rowScanner) (*model.Account, error) {
    var (
        a                 model.Account
        hash, phone       sql.NullString
        provider, subject sql.NullString
        until             sql.NullTime
        role              string
    )
    if err := s.Scan(&a.ID, &a.Username, &a.Email, &hash, &a.FullName, &phone,
        &a.Role.ID, &role, &a.IsBlocked, &until, &provider, &subject,
        &a.CreatedAt, &a.UpdatedAt); err != nil {
        return nil, mapErr(err)
    }
    a.PasswordHash = hash.String
    a.Phone = phone.String
    a.Role.Name = model.RoleName(role)
    a.FederatedProvider = provider.String
    a.FederatedSubject = subject.String
    if until.Valid {
        t := until.Time
        a.BlockedUntil = &t
    }
    return &a, nil
}

// NormalizeEmail lowercases and trims an email address the way it is stored.
func NormalizeEmail(email string) string {
    return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a and populates its ID, role name and timestamps.  A
// username, email or federated identity collision yields ErrDuplicate.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
    const q = `INSERT INTO users
        (username, email, password_hash, full_name, phone, role_id, oauth_provider, oauth_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    a.Email = NormalizeEmail(a.Email)
    res, err := r.db.ExecContext(ctx, q, a.Username, a.Email, nullString(a.PasswordHash),
        a.FullName, nullString(a.Phone), a.Role.ID,
        nullString(a.FederatedProvider), nullString(a.FederatedSubject))
    if err != nil {
        return mapErr(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    stored, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *a = *stored
    return nil
}

// GetByID fetches an account by primary key.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (*model.Account, error) {
    return scanAccount(r.db.QueryRowContext(ctx, selectAccount+" WHERE u.id = ?", id))
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
    return scanAccount(r.db.QueryRowContext(ctx, selectAccount+" WHERE u.email = ? LIMIT 1", NormalizeEmail(email)))
}

// GetByFederated fetches the account linked to a provider subject.
func (r *AccountRepo) GetByFederated(ctx context.Context, provider, subject string) (*model.Account, error) {
    return scanAccount(r.db.QueryRowContext(ctx,
        selectAccount+" WHERE u.oauth_provider = ? AND u.oauth_id = ? LIMIT 1", provider, subject))
}

// UsernameExists reports whether username is taken.
func (r *AccountRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
    return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username)
}

// EmailExists reports whether email is taken.
func (r *AccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
    return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", NormalizeEmail(email))
}

func (r *AccountRepo) exists(ctx context.Context, q string, arg any) (bool, error) {
    var ok bool
    if err := r.db.QueryRowContext(ctx, q, arg).Scan(&ok); err != nil {
        return false, err
    }
    return ok, nil
}

// LinkFederated attaches a provider identity to an existing account.
func (r *AccountRepo) LinkFederated(ctx context.Context, id uint64, provider, subject string) error {
    const q = `UPDATE users SET oauth_provider = ?, oauth_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, provider, subject, id)
    if err != nil {
        return mapErr(err)
    }
    return expectAffected(res)
}

// SetBlock marks the account blocked until the given instant.
func (r *AccountRepo) SetBlock(ctx context.Context, id uint64, until time.Time) error {
    const q = `UPDATE users SET is_blocked = 1, blocked_until = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, until.UTC(), id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

// ClearBlock removes any block.  It is idempotent: clearing an account
// that is not blocked, or one that no longer exists, is not an error.
func (r *AccountRepo) ClearBlock(ctx context.Context, id uint64) error {
    const q = `UPDATE users SET is_blocked = 0, blocked_until = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, id)
    return err
}

// UpdateProfile changes the editable profile fields.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id uint64, fullName, phone string) error {
    const q = `UPDATE users SET full_name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, fullName, nullString(phone), id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

// UpdatePassword stores a new bcrypt hash.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
    const q = `UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, hash, id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

// UpdateRole points the account at another role.
func (r *AccountRepo) UpdateRole(ctx context.Context, id uint64, roleID uint8) error {
    const q = `UPDATE users SET role_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, roleID, id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

// Delete removes the account.  Posts, projects and comments it owns are
// removed by the ON DELETE CASCADE foreign keys.
func (r *AccountRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

// List returns every account ordered by id.
func (r *AccountRepo) List(ctx context.Context) ([]*model.Account, error) {
    rows, err := r.db.QueryContext(ctx, selectAccount+" ORDER BY u.id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*model.Account
    for rows.Next() {
        a, err := scanAccount(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
