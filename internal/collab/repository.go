package collab

import (
	"collaborative-docs-backend/internal/domain"
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// FindCollaborator returns the (document, user) row or gorm.ErrRecordNotFound.
	FindCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error)
	SaveCollaborator(ctx context.Context, collaborator *domain.DocumentCollaborator) error
	ListActiveCollaborators(ctx context.Context, docID uint64) ([]domain.DocumentCollaborator, error)

	CreateActivity(ctx context.Context, activity *domain.DocumentActivity) error
	ListRecentActivities(ctx context.Context, docID uint64, limit int) ([]domain.DocumentActivity, error)

	CountVersions(ctx context.Context, docID uint64) (int64, error)
	CreateVersion(ctx context.Context, version *domain.DocumentVersion) error
	FindVersionByID(ctx context.Context, id uint64) (*domain.DocumentVersion, error)
	ListVersions(ctx context.Context, docID uint64) ([]domain.DocumentVersion, error)
	UpdateDocumentContent(ctx context.Context, docID uint64, title, content string, now time.Time) error

	// Transact runs fn against a repository bound to a single transaction;
	// any error rolls the whole batch back. The restore flow depends on this
	// so no partial application is observable.
	Transact(ctx context.Context, fn func(tx Repository) error) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) FindCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error) {
	var collaborator domain.DocumentCollaborator
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", docID, userID).
		First(&collaborator).Error
	if err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (r *RepositoryImpl) SaveCollaborator(ctx context.Context, collaborator *domain.DocumentCollaborator) error {
	return r.db.WithContext(ctx).Save(collaborator).Error
}

func (r *RepositoryImpl) ListActiveCollaborators(ctx context.Context, docID uint64) ([]domain.DocumentCollaborator, error) {
	var collaborators []domain.DocumentCollaborator
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND is_active = true", docID).
		Preload("User").
		Order("joined_at ASC").
		Find(&collaborators).Error
	return collaborators, err
}

func (r *RepositoryImpl) CreateActivity(ctx context.Context, activity *domain.DocumentActivity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *RepositoryImpl) ListRecentActivities(ctx context.Context, docID uint64, limit int) ([]domain.DocumentActivity, error) {
	var activities []domain.DocumentActivity
	err := r.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

func (r *RepositoryImpl) CountVersions(ctx context.Context, docID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.DocumentVersion{}).
		Where("document_id = ?", docID).
		Count(&count).Error
	return count, err
}

func (r *RepositoryImpl) CreateVersion(ctx context.Context, version *domain.DocumentVersion) error {
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *RepositoryImpl) FindVersionByID(ctx context.Context, id uint64) (*domain.DocumentVersion, error) {
	var version domain.DocumentVersion
	err := r.db.WithContext(ctx).First(&version, id).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *RepositoryImpl) ListVersions(ctx context.Context, docID uint64) ([]domain.DocumentVersion, error) {
	var versions []domain.DocumentVersion
	err := r.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Preload("Author").
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}

func (r *RepositoryImpl) UpdateDocumentContent(ctx context.Context, docID uint64, title, content string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", docID).
		Updates(map[string]any{
			"title":      title,
			"content":    content,
			"updated_at": now,
		}).Error
}

func (r *RepositoryImpl) Transact(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RepositoryImpl{db: tx})
	})
}
