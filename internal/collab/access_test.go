package collab

import (
	"collaborative-docs-backend/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasDocumentAccess_Owner(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}

	assert.True(t, HasDocumentAccess(doc, 10, nil))
}

func TestHasDocumentAccess_ActiveCollaborator(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}
	collaborator := &domain.DocumentCollaborator{
		DocumentID: 1,
		UserID:     20,
		Permission: domain.PermissionRead,
		IsActive:   true,
	}

	assert.True(t, HasDocumentAccess(doc, 20, collaborator))
}

func TestHasDocumentAccess_InactiveCollaborator(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}
	collaborator := &domain.DocumentCollaborator{
		DocumentID: 1,
		UserID:     20,
		Permission: domain.PermissionEdit,
		IsActive:   false,
	}

	assert.False(t, HasDocumentAccess(doc, 20, collaborator))
}

func TestHasDocumentAccess_NoRow(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}

	assert.False(t, HasDocumentAccess(doc, 20, nil))
}

func TestHasDocumentAccess_PublicDoesNotGrantAccess(t *testing.T) {
	// IsPublic affects the REST read path only, not collaboration access
	doc := &domain.Document{ID: 1, OwnerID: 10, IsPublic: true}

	assert.False(t, HasDocumentAccess(doc, 20, nil))
}

func TestHasEditPermission_Owner(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}

	assert.True(t, HasEditPermission(doc, 10, nil))
}

func TestHasEditPermission_EditCollaborator(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}
	collaborator := &domain.DocumentCollaborator{
		DocumentID: 1,
		UserID:     20,
		Permission: domain.PermissionEdit,
		IsActive:   true,
	}

	assert.True(t, HasEditPermission(doc, 20, collaborator))
}

func TestHasEditPermission_ReadCollaborator(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}
	collaborator := &domain.DocumentCollaborator{
		DocumentID: 1,
		UserID:     20,
		Permission: domain.PermissionRead,
		IsActive:   true,
	}

	assert.False(t, HasEditPermission(doc, 20, collaborator))
}

func TestHasEditPermission_InactiveEditCollaborator(t *testing.T) {
	doc := &domain.Document{ID: 1, OwnerID: 10}
	collaborator := &domain.DocumentCollaborator{
		DocumentID: 1,
		UserID:     20,
		Permission: domain.PermissionEdit,
		IsActive:   false,
	}

	assert.False(t, HasEditPermission(doc, 20, collaborator))
}
