package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// ContactRepo stores contact form submissions.
type ContactRepo struct {
    db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const selectContact = `SELECT id, name, email, subject, message, is_read, created_at FROM contacts`

func scanContact(s rowScanner) (*model.Contact, error) {
    var c model.Contact
    if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.IsRead, &c.CreatedAt); err != nil {
        return nil, mapErr(err)
    }
    return &c, nil
}

func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO contacts (name, email, subject, message) VALUES (?, ?, ?, ?)",
        c.Name, NormalizeEmail(c.Email), c.Subject, c.Message)
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

func (r *ContactRepo) GetByID(ctx context.Context, id uint64) (*model.Contact, error) {
    return scanContact(r.db.QueryRowContext(ctx, selectContact+" WHERE id = ?", id))
}

// List returns all submissions, unread first and then newest first.
func (r *ContactRepo) List(ctx context.Context) ([]*model.Contact, error) {
    rows, err := r.db.QueryContext(ctx, selectContact+" ORDER BY is_read, created_at DESC, id DESC")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []*model.Contact{}
    for rows.Next() {
        c, err := scanContact(rows)
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

// MarkRead flags a submission as read.  Marking twice is harmless.
func (r *ContactRepo) MarkRead(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "UPDATE contacts SET is_read = 1 WHERE id = ?", id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}

func (r *ContactRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
    if err != nil {
        return err
    }
    return expectAffected(res)
}
