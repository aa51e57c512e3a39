package model

import "time"

// Post is a blog article owned by the account that wrote it.  Slug is
// derived from Title on every create/update and is not unique.
type Post struct {
    ID        uint64    `json:"id"`
    AuthorID  uint64    `json:"author_id"`
    Title     string    `json:"title"`
    Slug      string    `json:"slug"`
    Summary   string    `json:"summary"`
    Content   string    `json:"content"`
    CoverURL  string    `json:"cover_url,omitempty"`
    Published bool      `json:"published"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}
