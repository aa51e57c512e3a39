package model

import "time"

// Comment is attached to a post and owned by its author.
type Comment struct {
    ID        uint64    `json:"id"`
    PostID    uint64    `json:"post_id"`
    AuthorID  uint64    `json:"author_id"`
    Author    string    `json:"author,omitempty"` // username, filled on reads
    Content   string    `json:"content"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}
