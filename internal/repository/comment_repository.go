package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// CommentRepo encapsulates queries against the `comments` table.  Reads
// join users so each comment carries its author's username.
type CommentRepo struct {
    db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

const selectComment = `SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at, c.updated_at
  FROM comments c
  JOIN users u ON u.id = c.author_id`

func scanComment(s rowScanner) (*model.Comment, error) {
    var c model.Comment
    if err := s.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
        return nil, mapErr(err)
    }
    return &c, nil
}

func (r *CommentRepo) list(ctx context.Context, q string, args ...any) ([]*model.Comment, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []*model.Comment{}
    for rows.Next() {
        c, err := scanComment(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Create inserts c and reloads it with the author username.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO comments (post_id, author_id, content) VALUES (?, ?, ?)",
        c.PostID, c.AuthorID, c.Content)
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
    *c = *stored
    return nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
    return scanComment(r.db.QueryRowContext(ctx, selectComment+" WHERE c.id = ?", id))
}

// ListByPost returns a post's comments in the order they were written.
func (r *CommentRepo) ListByPost(ctx context.Context, postID uint64) ([]*model.Comment, error) {
    return r.list(ctx, selectComment+" WHERE c.post_id = ? ORDER BY c.created_at, c.id", postID)
}

// ListAll is the moderation view: every comment, newest first.
func (r *CommentRepo) ListAll(ctx context.Context) ([]*model.Comment, error) {
    return r.list(ctx, selectComment+" ORDER BY c.created_at DESC, c.id DESC")
}

// UpdateContent edits the comment body.
func (r *CommentRepo) UpdateContent(ctx context.Context, id uint64, content string) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE comments SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", content, id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}
