package model

import "time"

// Project is a portfolio entry owned by the account that created it.
type Project struct {
    ID          uint64    `json:"id"`
    OwnerID     uint64    `json:"owner_id"`
    Title       string    `json:"title"`
    Description string    `json:"description"`
    TechStack   string    `json:"tech_stack"`
    RepoURL     string    `json:"repo_url,omitempty"`
    DemoURL     string    `json:"demo_url,omitempty"`
    ImageURL    string    `json:"image_url,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}
