package domain

import "time"

// Permission levels attached to a collaborator row.
const (
	PermissionRead = "read"
	PermissionEdit = "edit"
)

// Activity types recorded in the document audit trail.
const (
	ActivityUserJoined          = "USER_JOINED"
	ActivityUserLeft            = "USER_LEFT"
	ActivityCollaboratorInvited = "COLLABORATOR_INVITED"
	ActivityVersionRestored     = "VERSION_RESTORED"
)

// Document is the shared mutable aggregate. Deletion is always soft:
// IsDeleted rows stay in the table but are excluded from every finder.
type Document struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content" gorm:"type:text"`
	OwnerID   uint64    `json:"owner_id"`
	Owner     User      `json:"-"`
	IsPublic  bool      `json:"is_public" gorm:"default:false"`
	IsDeleted bool      `json:"-" gorm:"default:false"`
	ViewCount int       `json:"view_count" gorm:"default:0"`
	LikeCount int       `json:"like_count" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentCollaborator is the presence record for a (document, user) pair.
// At most one row per pair: join reactivates, leave deactivates.
type DocumentCollaborator struct {
	ID             uint64 `gorm:"primaryKey"`
	DocumentID     uint64 `gorm:"uniqueIndex:idx_doc_user"`
	UserID         uint64 `gorm:"uniqueIndex:idx_doc_user"`
	User           User
	Permission     string `gorm:"size:20"`
	IsActive       bool
	JoinedAt       time.Time
	LastActivityAt time.Time
}

// DocumentVersion is an immutable full-content snapshot. VersionNumber is
// 1-based and strictly increasing per document.
type DocumentVersion struct {
	ID            uint64 `gorm:"primaryKey"`
	DocumentID    uint64 `gorm:"index"`
	VersionNumber int64
	Title         string
	Content       string `gorm:"type:text"`
	Changes       string
	AuthorID      uint64
	Author        User
	CreatedAt     time.Time
}

// DocumentActivity is an append-only audit record. Rows are never updated
// or removed.
type DocumentActivity struct {
	ID           uint64 `gorm:"primaryKey"`
	DocumentID   uint64 `gorm:"index"`
	UserID       uint64
	User         User
	ActivityType string `gorm:"size:40"`
	Description  string
	CreatedAt    time.Time
}

// File is an uploaded attachment, optionally associated to a document.
type File struct {
	ID           uint64    `json:"id" gorm:"primaryKey"`
	FileName     string    `json:"file_name" gorm:"uniqueIndex"`
	OriginalName string    `json:"original_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	StoragePath  string    `json:"-"`
	FileURL      string    `json:"file_url"`
	OwnerID      uint64    `json:"owner_id"`
	Owner        User      `json:"-"`
	DocumentID   *uint64   `json:"document_id"`
	Document     *Document `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
