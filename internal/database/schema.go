package database

import "time"

// The structs below describe the relational schema for gorm's AutoMigrate.
// Runtime queries go through database/sql in the repository package; these
// types are only used by Migrate.

type roleRow struct {
    ID   uint8  `gorm:"primaryKey;autoIncrement"`
    Name string `gorm:"type:varchar(32);uniqueIndex;not null"`
}

func (roleRow) TableName() string { return "roles" }

type userRow struct {
    ID            uint64     `gorm:"primaryKey;autoIncrement"`
    Username      string     `gorm:"type:varchar(64);uniqueIndex;not null"`
    Email         string     `gorm:"type:varchar(255);uniqueIndex;not null"`
    PasswordHash  *string    `gorm:"type:varchar(255)"`
    FullName      string     `gorm:"type:varchar(128);not null;default:''"`
    Phone         *string    `gorm:"type:varchar(32)"`
    RoleID        uint8      `gorm:"not null;index"`
    Role          roleRow    `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
    IsBlocked     bool       `gorm:"not null;default:false"`
    BlockedUntil  *time.Time `gorm:"type:datetime"`
    OAuthProvider *string    `gorm:"column:oauth_provider;type:varchar(32);uniqueIndex:uq_users_oauth"`
    OAuthID       *string    `gorm:"column:oauth_id;type:varchar(191);uniqueIndex:uq_users_oauth"`
    CreatedAt     time.Time  `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
    UpdatedAt     time.Time  `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (userRow) TableName() string { return "users" }

type postRow struct {
    ID        uint64    `gorm:"primaryKey;autoIncrement"`
    AuthorID  uint64    `gorm:"not null;index"`
    Author    userRow   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
    Title     string    `gorm:"type:varchar(255);not null"`
    Slug      string    `gorm:"type:varchar(255);not null;index"`
    Summary   string    `gorm:"type:varchar(512);not null;default:''"`
    Content   string    `gorm:"type:mediumtext;not null"`
    CoverURL  *string   `gorm:"column:cover_url;type:varchar(512)"`
    Published bool      `gorm:"not null;default:false;index"`
    CreatedAt time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
    UpdatedAt time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (postRow) TableName() string { return "posts" }

type projectRow struct {
    ID          uint64    `gorm:"primaryKey;autoIncrement"`
    OwnerID     uint64    `gorm:"not null;index"`
    Owner       userRow   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
    Title       string    `gorm:"type:varchar(255);not null"`
    Description string    `gorm:"type:text;not null"`
    TechStack   string    `gorm:"type:varchar(255);not null;default:''"`
    RepoURL     *string   `gorm:"column:repo_url;type:varchar(512)"`
    DemoURL     *string   `gorm:"column:demo_url;type:varchar(512)"`
    ImageURL    *string   `gorm:"column:image_url;type:varchar(512)"`
    CreatedAt   time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
    UpdatedAt   time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (projectRow) TableName() string { return "projects" }

type commentRow struct {
    ID        uint64    `gorm:"primaryKey;autoIncrement"`
    PostID    uint64    `gorm:"not null;index"`
    Post      postRow   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
    AuthorID  uint64    `gorm:"not null;index"`
    Author    userRow   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
    Content   string    `gorm:"type:text;not null"`
    CreatedAt time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
    UpdatedAt time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (commentRow) TableName() string { return "comments" }

type contactRow struct {
    ID        uint64    `gorm:"primaryKey;autoIncrement"`
    Name      string    `gorm:"type:varchar(128);not null"`
    Email     string    `gorm:"type:varchar(255);not null"`
    Subject   string    `gorm:"type:varchar(255);not null;default:''"`
    Message   string    `gorm:"type:text;not null"`
    IsRead    bool      `gorm:"not null;default:false"`
    CreatedAt time.Time `gorm:"type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (contactRow) TableName() string { return "contacts" }
