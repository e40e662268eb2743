package collab

import "collaborative-docs-backend/internal/domain"

// HasDocumentAccess reports whether the user may read the document's
// versions, activities, collaborator list and files: the owner always may,
// otherwise an active collaborator row is required regardless of its
// permission level. collaborator is the (document, user) row or nil.
func HasDocumentAccess(doc *domain.Document, userID uint64, collaborator *domain.DocumentCollaborator) bool {
	if doc.OwnerID == userID {
		return true
	}
	return collaborator != nil && collaborator.IsActive
}

// HasEditPermission reports whether the user may mutate the document's
// content or title through the realtime engine: the owner always may,
// otherwise the active collaborator row must carry the "edit" permission.
func HasEditPermission(doc *domain.Document, userID uint64, collaborator *domain.DocumentCollaborator) bool {
	if doc.OwnerID == userID {
		return true
	}
	return collaborator != nil && collaborator.IsActive && collaborator.Permission == domain.PermissionEdit
}
