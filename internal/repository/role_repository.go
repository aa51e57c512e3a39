package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// RoleRepo reads the seeded `roles` table.
type RoleRepo struct {
    db *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// GetByName resolves a role by its name.
func (r *RoleRepo) GetByName(ctx context.Context, name model.RoleName) (model.Role, error) {
    var role model.Role
    err := r.db.QueryRowContext(ctx, "SELECT id, name FROM roles WHERE name = ?", string(name)).
        Scan(&role.ID, &role.Name)
    return role, mapErr(err)
}

// GetByID resolves a role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint8) (model.Role, error) {
    var role model.Role
    err := r.db.QueryRowContext(ctx, "SELECT id, name FROM roles WHERE id = ?", id).
        Scan(&role.ID, &role.Name)
    return role, mapErr(err)
}

// List returns all roles ordered by id.
func (r *RoleRepo) List(ctx context.Context) ([]model.Role, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Role
    for rows.Next() {
        var role model.Role
        if err := rows.Scan(&role.ID, &role.Name); err != nil {
            return nil, err
        }
        out = append(out, role)
    }
    return out, rows.Err()
}
