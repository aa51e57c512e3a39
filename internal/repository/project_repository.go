package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// ProjectRepo encapsulates queries against the `projects` table.
type ProjectRepo struct {
    db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const selectProject = `SELECT id, owner_id, title, description, tech_stack, repo_url, demo_url, image_url, created_at, updated_at FROM projects`

func scanProject(s rowScanner) (*model.Project, error) {
    var (
        p                    model.Project
        repo, demo, imageURL sql.NullString
    )
    if err := s.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.TechStack,
        &repo, &demo, &imageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
        return nil, mapErr(err)
    }
    p.RepoURL, p.DemoURL, p.ImageURL = repo.String, demo.String, imageURL.String
    return &p, nil
}

// Create inserts p and reloads the stored row into it.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
    const q = `INSERT INTO projects (owner_id, title, description, tech_stack, repo_url, demo_url, image_url)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.OwnerID, p.Title, p.Description, p.TechStack,
        nullString(p.RepoURL), nullString(p.DemoURL), nullString(p.ImageURL))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    stored, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *p = *stored
    return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
    return scanProject(r.db.QueryRowContext(ctx, selectProject+" WHERE id = ?", id))
}

// List returns every project, newest first.  When ownerID is non-zero only
// that account's projects are returned.
func (r *ProjectRepo) List(ctx context.Context, ownerID uint64) ([]*model.Project, error) {
    q, args := selectProject, []any{}
    if ownerID != 0 {
        q += " WHERE owner_id = ?"
        args = append(args, ownerID)
    }
    rows, err := r.db.QueryContext(ctx, q+" ORDER BY created_at DESC, id DESC", args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []*model.Project{}
    for rows.Next() {
        p, err := scanProject(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update rewrites the editable columns; owner_id stays as created.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
    const q = `UPDATE projects
               SET title = ?, description = ?, tech_stack = ?, repo_url = ?, demo_url = ?, image_url = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, p.Title, p.Description, p.TechStack,
        nullString(p.RepoURL), nullString(p.DemoURL), nullString(p.ImageURL), p.ID)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}
