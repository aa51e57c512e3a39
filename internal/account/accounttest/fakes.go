// Package accounttest provides in-memory implementations of the account
// store interfaces for tests.
package accounttest

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/queue"
    "github.com/iliyamo/portfolio-blog/internal/repository"
)

// Seeded roles, matching the ids Migrate assigns on an empty database.
var (
    AdminRole = model.Role{ID: 1, Name: model.RoleAdmin}
    UserRole  = model.Role{ID: 2, Name: model.RoleUser}
)

// Store keeps accounts in a map and enforces the same unique keys as the
// users table.  Set FailClearBlock to make ClearBlock return that error.
type Store struct {
    mu             sync.Mutex
    next           uint64
    rows           map[uint64]model.Account
    FailClearBlock error
    ClearCalls     int
}

// NewStore returns an empty store.
func NewStore() *Store {
    return &Store{rows: map[uint64]model.Account{}}
}

// Put inserts a directly, bypassing uniqueness checks, and returns its id.
func (s *Store) Put(a model.Account) uint64 {
    s.mu.Lock()
    defer s.mu.Unlock()
    if a.ID == 0 {
        s.next++
        a.ID = s.next
    } else if a.ID > s.next {
        s.next = a.ID
    }
    if a.Role.ID == 0 {
        a.Role = UserRole
    }
    s.rows[a.ID] = a
    return a.ID
}

// Snapshot returns a copy of the stored row.
func (s *Store) Snapshot(id uint64) (model.Account, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    a, ok := s.rows[id]
    return a, ok
}

func (s *Store) Create(_ context.Context, a *model.Account) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    a.Email = repository.NormalizeEmail(a.Email)
    for _, r := range s.rows {
        if r.Username == a.Username || r.Email == a.Email {
            return repository.ErrDuplicate
        }
        if a.FederatedProvider != "" && r.FederatedProvider == a.FederatedProvider &&
            r.FederatedSubject == a.FederatedSubject {
            return repository.ErrDuplicate
        }
    }
    s.next++
    a.ID = s.next
    now := time.Now().UTC()
    a.CreatedAt, a.UpdatedAt = now, now
    s.rows[a.ID] = *a
    return nil
}

func (s *Store) find(pred func(model.Account) bool) (*model.Account, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    ids := make([]uint64, 0, len(s.rows))
    for id := range s.rows {
        ids = append(ids, id)
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    for _, id := range ids {
        if r := s.rows[id]; pred(r) {
            return &r, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (s *Store) GetByID(_ context.Context, id uint64) (*model.Account, error) {
    return s.find(func(a model.Account) bool { return a.ID == id })
}

func (s *Store) GetByEmail(_ context.Context, email string) (*model.Account, error) {
    email = repository.NormalizeEmail(email)
    return s.find(func(a model.Account) bool { return a.Email == email })
}

func (s *Store) GetByFederated(_ context.Context, provider, subject string) (*model.Account, error) {
    return s.find(func(a model.Account) bool {
        return a.FederatedProvider == provider && a.FederatedSubject == subject
    })
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
    _, err := s.find(func(a model.Account) bool { return a.Username == username })
    return err == nil, nil
}

func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
    email = repository.NormalizeEmail(email)
    _, err := s.find(func(a model.Account) bool { return strings.EqualFold(a.Email, email) })
    return err == nil, nil
}

func (s *Store) update(id uint64, fn func(*model.Account)) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    a, ok := s.rows[id]
    if !ok {
        return repository.ErrNotFound
    }
    fn(&a)
    a.UpdatedAt = time.Now().UTC()
    s.rows[id] = a
    return nil
}

func (s *Store) LinkFederated(_ context.Context, id uint64, provider, subject string) error {
    return s.update(id, func(a *model.Account) { a.FederatedProvider, a.FederatedSubject = provider, subject })
}

func (s *Store) SetBlock(_ context.Context, id uint64, until time.Time) error {
    return s.update(id, func(a *model.Account) {
        a.IsBlocked = true
        a.BlockedUntil = &until
    })
}

func (s *Store) ClearBlock(_ context.Context, id uint64) error {
    s.mu.Lock()
    s.ClearCalls++
    fail := s.FailClearBlock
    s.mu.Unlock()
    if fail != nil {
        return fail
    }
    err := s.update(id, func(a *model.Account) {
        a.IsBlocked = false
        a.BlockedUntil = nil
    })
    if err == repository.ErrNotFound {
        return nil
    }
    return err
}

func (s *Store) UpdateProfile(_ context.Context, id uint64, fullName, phone string) error {
    return s.update(id, func(a *model.Account) { a.FullName, a.Phone = fullName, phone })
}

func (s *Store) UpdatePassword(_ context.Context, id uint64, hash string) error {
    return s.update(id, func(a *model.Account) { a.PasswordHash = hash })
}

func (s *Store) UpdateRole(_ context.Context, id uint64, roleID uint8) error {
    return s.update(id, func(a *model.Account) {
        a.Role = UserRole
        if roleID == AdminRole.ID {
            a.Role = AdminRole
        }
    })
}

func (s *Store) Delete(_ context.Context, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.rows[id]; !ok {
        return repository.ErrNotFound
    }
    delete(s.rows, id)
    return nil
}

func (s *Store) List(_ context.Context) ([]*model.Account, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]*model.Account, 0, len(s.rows))
    for _, r := range s.rows {
        r := r
        out = append(out, &r)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// Roles serves AdminRole and UserRole.
type Roles struct{}

func (Roles) GetByName(_ context.Context, name model.RoleName) (model.Role, error) {
    switch name {
    case model.RoleAdmin:
        return AdminRole, nil
    case model.RoleUser:
        return UserRole, nil
    }
    return model.Role{}, repository.ErrNotFound
}

func (Roles) GetByID(_ context.Context, id uint8) (model.Role, error) {
    switch id {
    case AdminRole.ID:
        return AdminRole, nil
    case UserRole.ID:
        return UserRole, nil
    }
    return model.Role{}, repository.ErrNotFound
}

// Events records published events.
type Events struct {
    mu  sync.Mutex
    got []queue.AccountEvent
}

func (e *Events) Publish(_ context.Context, ev queue.AccountEvent) error {
    e.mu.Lock()
    defer e.mu.Unlock()
    e.got = append(e.got, ev)
    return nil
}

// Types lists the recorded event types in order.
func (e *Events) Types() []string {
    e.mu.Lock()
    defer e.mu.Unlock()
    out := make([]string, len(e.got))
    for i, ev := range e.got {
        out[i] = ev.Type
    }
    return out
}
