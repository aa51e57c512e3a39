package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// PostRepo encapsulates queries against the `posts` table.
type PostRepo struct {
    db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

const selectPost = `SELECT id, author_id, title, slug, summary, content, cover_url, published, created_at, updated_at FROM posts`

func scanPost(s rowScanner) (*model.Post, error) {
    var (
        p     model.Post
        cover sql.NullString
    )
    if err := s.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Summary, &p.Content,
        &cover, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
        return nil, mapErr(err)
    }
    p.CoverURL = cover.String
    return &p, nil
}

func (r *PostRepo) list(ctx context.Context, q string, args ...any) ([]*model.Post, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []*model.Post{}
    for rows.Next() {
        p, err := scanPost(rows)
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

// Create inserts p and reloads it so the caller receives the stored
// timestamps.
func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
    const q = `INSERT INTO posts (author_id, title, slug, summary, content, cover_url, published)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.AuthorID, p.Title, p.Slug, p.Summary, p.Content,
        nullString(p.CoverURL), p.Published)
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

// GetByID fetches a post regardless of its published state.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
    return scanPost(r.db.QueryRowContext(ctx, selectPost+" WHERE id = ?", id))
}

// GetBySlug returns the oldest post carrying slug.  Slugs are not unique,
// so later posts with the same title are only reachable by id.
func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
    return scanPost(r.db.QueryRowContext(ctx, selectPost+" WHERE slug = ? ORDER BY id LIMIT 1", slug))
}

// ListPublished returns published posts, newest first.
func (r *PostRepo) ListPublished(ctx context.Context) ([]*model.Post, error) {
    return r.list(ctx, selectPost+" WHERE published = 1 ORDER BY created_at DESC, id DESC")
}

// ListAll returns every post including drafts, newest first.
func (r *PostRepo) ListAll(ctx context.Context) ([]*model.Post, error) {
    return r.list(ctx, selectPost+" ORDER BY created_at DESC, id DESC")
}

// Update rewrites the editable columns.  author_id is never touched.
func (r *PostRepo) Update(ctx context.Context, p *model.Post) error {
    const q = `UPDATE posts
               SET title = ?, slug = ?, summary = ?, content = ?, cover_url = ?, published = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, p.Title, p.Slug, p.Summary, p.Content,
        nullString(p.CoverURL), p.Published, p.ID)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

// Delete removes a post; its comments go with it through the foreign key.
func (r *PostRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}
