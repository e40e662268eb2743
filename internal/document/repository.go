package document

import (
	"collaborative-docs-backend/internal/domain"
	"context"
	"time"

	"gorm.io/gorm"
)

type DocumentsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type DocumentRepository interface {
	Create(ctx context.Context, ownerID uint64, document *domain.Document) error
	// FindByID returns the row even when soft-deleted; internal use only.
	FindByID(ctx context.Context, id uint64) (*domain.Document, error)
	FindActiveByID(ctx context.Context, id uint64) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]domain.Document, DocumentsMeta, error)
	ListPublic(ctx context.Context, page, pageSize int) ([]domain.Document, DocumentsMeta, error)
	SearchByOwnerAndTitle(ctx context.Context, ownerID uint64, keyword string) ([]domain.Document, error)
	SearchPublicByTitle(ctx context.Context, keyword string) ([]domain.Document, error)
	Save(ctx context.Context, document *domain.Document) error
	SoftDelete(ctx context.Context, id uint64) error
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new document repository
func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

// active is the single soft-delete predicate every finder goes through.
func active(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = false")
}

// Create creates a new document owned by ownerID
func (r *DocumentRepositoryImpl) Create(ctx context.Context, ownerID uint64, document *domain.Document) error {
	document.OwnerID = ownerID
	document.CreatedAt = time.Now().UTC()
	document.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Preload("Owner").First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) FindActiveByID(ctx context.Context, id uint64) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Scopes(active).Preload("Owner").First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]domain.Document, DocumentsMeta, error) {
	var documents []domain.Document
	var totalRecords int64

	base := r.db.WithContext(ctx).Model(&domain.Document{}).
		Scopes(active).
		Where("owner_id = ?", ownerID)

	if err := base.Count(&totalRecords).Error; err != nil {
		return documents, DocumentsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := base.
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&documents).Error

	return documents, meta(totalRecords, page, pageSize), err
}

func (r *DocumentRepositoryImpl) ListPublic(ctx context.Context, page, pageSize int) ([]domain.Document, DocumentsMeta, error) {
	var documents []domain.Document
	var totalRecords int64

	base := r.db.WithContext(ctx).Model(&domain.Document{}).
		Scopes(active).
		Where("is_public = true")

	if err := base.Count(&totalRecords).Error; err != nil {
		return documents, DocumentsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := base.
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&documents).Error

	return documents, meta(totalRecords, page, pageSize), err
}

func (r *DocumentRepositoryImpl) SearchByOwnerAndTitle(ctx context.Context, ownerID uint64, keyword string) ([]domain.Document, error) {
	var documents []domain.Document
	err := r.db.WithContext(ctx).
		Scopes(active).
		Where("owner_id = ?", ownerID).
		Where("title LIKE ?", "%"+keyword+"%").
		Order("updated_at DESC").
		Find(&documents).Error
	return documents, err
}

func (r *DocumentRepositoryImpl) SearchPublicByTitle(ctx context.Context, keyword string) ([]domain.Document, error) {
	var documents []domain.Document
	err := r.db.WithContext(ctx).
		Scopes(active).
		Where("is_public = true").
		Where("title LIKE ?", "%"+keyword+"%").
		Order("updated_at DESC").
		Find(&documents).Error
	return documents, err
}

func (r *DocumentRepositoryImpl) Save(ctx context.Context, document *domain.Document) error {
	return r.db.WithContext(ctx).Save(document).Error
}

func (r *DocumentRepositoryImpl) SoftDelete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

func meta(total int64, page, pageSize int) DocumentsMeta {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return DocumentsMeta{
		Total:       total,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}
}
