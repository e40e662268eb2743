package collab

import (
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/errors"
	"context"
	defError "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type DocumentProvider interface {
	FindActiveByID(ctx context.Context, id uint64) (*domain.Document, error)
}

type UserProvider interface {
	GetUserByEmail(email string) (*domain.User, error)
}

type Service interface {
	// Registry primitives, consumed by the realtime engine.
	Join(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error)
	Leave(ctx context.Context, docID, userID uint64) error
	TouchActivity(ctx context.Context, docID, userID uint64) error
	RecordActivity(ctx context.Context, docID, userID uint64, activityType, description string) error
	GetCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error)

	// REST-facing operations, all access gated.
	ListCollaborators(ctx context.Context, docID, requesterID uint64) ([]CollaboratorDTO, error)
	ListActivities(ctx context.Context, docID, requesterID uint64) ([]ActivityDTO, error)
	ListVersions(ctx context.Context, docID, requesterID uint64) ([]VersionDTO, error)
	InviteCollaborator(ctx context.Context, docID, requesterID uint64, email, permission string) (*CollaboratorDTO, error)
	RestoreVersion(ctx context.Context, docID, versionID, requesterID uint64) error
}

type DefaultService struct {
	repository Repository
	documents  DocumentProvider
	users      UserProvider
}

func NewService(repository Repository, documents DocumentProvider, users UserProvider) Service {
	return &DefaultService{
		repository: repository,
		documents:  documents,
		users:      users,
	}
}

// recentActivityLimit caps the activity feed to the newest entries.
const recentActivityLimit = 10

// Join upserts the presence row for (document, user): a missing row is
// created with read permission, an existing row is reactivated. Never
// produces a second row for the same pair.
func (s *DefaultService) Join(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error) {
	now := time.Now().UTC()

	collaborator, err := s.repository.FindCollaborator(ctx, docID, userID)
	if err != nil {
		if !defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		collaborator = &domain.DocumentCollaborator{
			DocumentID: docID,
			UserID:     userID,
			Permission: domain.PermissionRead,
			JoinedAt:   now,
		}
	}

	collaborator.IsActive = true
	collaborator.LastActivityAt = now
	if err := s.repository.SaveCollaborator(ctx, collaborator); err != nil {
		return nil, err
	}
	return collaborator, nil
}

// Leave deactivates the presence row; a missing row is not an error.
func (s *DefaultService) Leave(ctx context.Context, docID, userID uint64) error {
	collaborator, err := s.repository.FindCollaborator(ctx, docID, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	collaborator.IsActive = false
	return s.repository.SaveCollaborator(ctx, collaborator)
}

// TouchActivity refreshes LastActivityAt on the presence row if one exists.
// The owner has no row, so this is a no-op for owner edits.
func (s *DefaultService) TouchActivity(ctx context.Context, docID, userID uint64) error {
	collaborator, err := s.repository.FindCollaborator(ctx, docID, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	collaborator.LastActivityAt = time.Now().UTC()
	return s.repository.SaveCollaborator(ctx, collaborator)
}

func (s *DefaultService) RecordActivity(ctx context.Context, docID, userID uint64, activityType, description string) error {
	return s.repository.CreateActivity(ctx, &domain.DocumentActivity{
		DocumentID:   docID,
		UserID:       userID,
		ActivityType: activityType,
		Description:  description,
	})
}

// GetCollaborator returns the (document, user) row, nil when absent.
func (s *DefaultService) GetCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error) {
	collaborator, err := s.repository.FindCollaborator(ctx, docID, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return collaborator, nil
}

// requireAccess loads the document and rejects requesters without read
// access. Used by every REST-facing operation in this service.
func (s *DefaultService) requireAccess(ctx context.Context, docID, requesterID uint64) (*domain.Document, error) {
	doc, err := s.documents.FindActiveByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	collaborator, err := s.GetCollaborator(ctx, docID, requesterID)
	if err != nil {
		return nil, err
	}
	if !HasDocumentAccess(doc, requesterID, collaborator) {
		return nil, errors.Forbidden("Access denied", nil)
	}
	return doc, nil
}

type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type CollaboratorDTO struct {
	ID             uint64    `json:"id"`
	User           UserDTO   `json:"user"`
	Permission     string    `json:"permission"`
	JoinedAt       time.Time `json:"joined_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type ActivityDTO struct {
	ID           uint64    `json:"id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	User         UserDTO   `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
}

type VersionDTO struct {
	ID            uint64    `json:"id"`
	VersionNumber int64     `json:"version_number"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Changes       string    `json:"changes"`
	User          UserDTO   `json:"user"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *DefaultService) ListCollaborators(ctx context.Context, docID, requesterID uint64) ([]CollaboratorDTO, error) {
	if _, err := s.requireAccess(ctx, docID, requesterID); err != nil {
		return nil, err
	}

	rows, err := s.repository.ListActiveCollaborators(ctx, docID)
	if err != nil {
		return nil, err
	}

	result := make([]CollaboratorDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, CollaboratorDTO{
			ID: row.ID,
			User: UserDTO{
				ID:       row.User.ID,
				Username: row.User.Username,
				Email:    row.User.Email,
			},
			Permission:     row.Permission,
			JoinedAt:       row.JoinedAt,
			LastActivityAt: row.LastActivityAt,
		})
	}
	return result, nil
}

func (s *DefaultService) ListActivities(ctx context.Context, docID, requesterID uint64) ([]ActivityDTO, error) {
	if _, err := s.requireAccess(ctx, docID, requesterID); err != nil {
		return nil, err
	}

	rows, err := s.repository.ListRecentActivities(ctx, docID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	result := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, ActivityDTO{
			ID:           row.ID,
			ActivityType: row.ActivityType,
			Description:  row.Description,
			User: UserDTO{
				ID:       row.User.ID,
				Username: row.User.Username,
			},
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}

func (s *DefaultService) ListVersions(ctx context.Context, docID, requesterID uint64) ([]VersionDTO, error) {
	if _, err := s.requireAccess(ctx, docID, requesterID); err != nil {
		return nil, err
	}

	rows, err := s.repository.ListVersions(ctx, docID)
	if err != nil {
		return nil, err
	}

	result := make([]VersionDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, VersionDTO{
			ID:            row.ID,
			VersionNumber: row.VersionNumber,
			Title:         row.Title,
			Content:       row.Content,
			Changes:       row.Changes,
			User: UserDTO{
				ID:       row.Author.ID,
				Username: row.Author.Username,
			},
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}

func (s *DefaultService) InviteCollaborator(ctx context.Context, docID, requesterID uint64, email, permission string) (*CollaboratorDTO, error) {
	doc, err := s.documents.FindActiveByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	// only the owner may invite
	if doc.OwnerID != requesterID {
		return nil, errors.Forbidden("Only document owner can invite collaborators", nil)
	}

	invited, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if invited.ID == requesterID {
		return nil, errors.UnprocessableEntity("Can't invite yourself", nil)
	}

	existing, err := s.GetCollaborator(ctx, docID, invited.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsActive {
		return nil, errors.Conflict("User is already a collaborator", nil)
	}

	now := time.Now().UTC()
	if existing == nil {
		existing = &domain.DocumentCollaborator{
			DocumentID: docID,
			UserID:     invited.ID,
			JoinedAt:   now,
		}
	}
	existing.Permission = permission
	existing.IsActive = true
	existing.LastActivityAt = now
	if err := s.repository.SaveCollaborator(ctx, existing); err != nil {
		return nil, err
	}

	if err := s.RecordActivity(ctx, docID, requesterID,
		domain.ActivityCollaboratorInvited,
		fmt.Sprintf("invited %s as a collaborator", invited.Username),
	); err != nil {
		return nil, err
	}

	return &CollaboratorDTO{
		ID: existing.ID,
		User: UserDTO{
			ID:       invited.ID,
			Username: invited.Username,
			Email:    invited.Email,
		},
		Permission:     permission,
		JoinedAt:       existing.JoinedAt,
		LastActivityAt: existing.LastActivityAt,
	}, nil
}

func (s *DefaultService) RestoreVersion(ctx context.Context, docID, versionID, requesterID uint64) error {
	doc, err := s.requireAccess(ctx, docID, requesterID)
	if err != nil {
		return err
	}

	target, err := s.repository.FindVersionByID(ctx, versionID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Version not found", err)
		}
		return err
	}

	if target.DocumentID != docID {
		return errors.BadRequest("Version does not belong to this document", nil)
	}

	now := time.Now().UTC()
	changes := fmt.Sprintf("restored to version %d", target.VersionNumber)

	err = s.repository.Transact(ctx, func(tx Repository) error {
		// version number is assigned inside the transaction so interleaved
		// restores keep the per-document sequence gapless
		count, err := tx.CountVersions(ctx, docID)
		if err != nil {
			return err
		}

		// 1. preserve the pre-restore state as a new version
		snapshot := &domain.DocumentVersion{
			DocumentID:    docID,
			VersionNumber: count + 1,
			Title:         doc.Title,
			Content:       doc.Content,
			Changes:       changes,
			AuthorID:      requesterID,
			CreatedAt:     now,
		}
		if err := tx.CreateVersion(ctx, snapshot); err != nil {
			return err
		}

		// 2. overwrite the live document from the target version
		if err := tx.UpdateDocumentContent(ctx, docID, target.Title, target.Content, now); err != nil {
			return err
		}

		// 3. append the audit record
		return tx.CreateActivity(ctx, &domain.DocumentActivity{
			DocumentID:   docID,
			UserID:       requesterID,
			ActivityType: domain.ActivityVersionRestored,
			Description:  changes,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return err
	}

	doc.Title = target.Title
	doc.Content = target.Content
	return nil
}
