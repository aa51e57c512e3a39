package model

import "time"

// Contact is a message submitted through the public contact form.  Only
// administrators can read or delete contacts.
type Contact struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Subject   string    `json:"subject"`
    Message   string    `json:"message"`
    IsRead    bool      `json:"is_read"`
    CreatedAt time.Time `json:"created_at"`
}
