package realtime

import (
	"collaborative-docs-backend/internal/collab"
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/metrics"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Publisher is the only pub/sub capability the engine needs; subscription
// bookkeeping belongs to the transport and the hub.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

type DocumentStore interface {
	FindActiveByID(ctx context.Context, id uint64) (*domain.Document, error)
	Save(ctx context.Context, document *domain.Document) error
}

type UserStore interface {
	GetUserByID(id uint64) (*domain.User, error)
}

// Registry is the slice of the collaborator service the engine drives.
type Registry interface {
	Join(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error)
	Leave(ctx context.Context, docID, userID uint64) error
	TouchActivity(ctx context.Context, docID, userID uint64) error
	RecordActivity(ctx context.Context, docID, userID uint64, activityType, description string) error
	GetCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error)
}

// Engine handles typed client events: validate permission, mutate state,
// update presence, append ledger entries, broadcast. Events failing their
// precondition are dropped with no response and no broadcast, so an open
// channel never acts as an oracle for document existence or membership.
type Engine struct {
	documents DocumentStore
	users     UserStore
	registry  Registry
	publisher Publisher
	logger    *zap.Logger
}

func NewEngine(
	documents DocumentStore,
	users UserStore,
	registry Registry,
	publisher Publisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		documents: documents,
		users:     users,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (e *Engine) drop(eventType, reason string) {
	metrics.DroppedEventsTotal.WithLabelValues(eventType, reason).Inc()
	e.logger.Debug("realtime event dropped",
		zap.String("type", eventType),
		zap.String("reason", reason),
	)
}

// loadActors resolves the document and acting user for an event; a miss on
// either means the event is dropped by the caller.
func (e *Engine) loadActors(ctx context.Context, docID, userID uint64) (*domain.Document, *domain.User, bool) {
	doc, err := e.documents.FindActiveByID(ctx, docID)
	if err != nil {
		return nil, nil, false
	}
	user, err := e.users.GetUserByID(userID)
	if err != nil {
		return nil, nil, false
	}
	return doc, user, true
}

func (e *Engine) publish(ctx context.Context, docID uint64, messageType string, message any) {
	if err := e.publisher.Publish(ctx, ChannelFor(docID), message); err != nil {
		e.logger.Error("broadcast failed",
			zap.Uint64("document_id", docID),
			zap.String("type", messageType),
			zap.Error(err),
		)
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(messageType).Inc()
}

// HandleJoin activates the sender's presence on the document and announces
// it. Requires read access. Reports whether the join took effect so the
// caller knows if the connection may listen on the document's channel.
func (e *Engine) HandleJoin(ctx context.Context, userID uint64, ev JoinEvent) bool {
	doc, user, ok := e.loadActors(ctx, ev.DocumentID, userID)
	if !ok {
		e.drop(EventJoin, "not_found")
		return false
	}

	collaborator, err := e.registry.GetCollaborator(ctx, doc.ID, userID)
	if err != nil {
		e.drop(EventJoin, "storage")
		return false
	}
	if !collab.HasDocumentAccess(doc, userID, collaborator) {
		e.drop(EventJoin, "denied")
		return false
	}

	if _, err := e.registry.Join(ctx, doc.ID, userID); err != nil {
		e.drop(EventJoin, "storage")
		return false
	}

	if err := e.registry.RecordActivity(ctx, doc.ID, userID,
		domain.ActivityUserJoined,
		fmt.Sprintf("%s joined the document", user.Username),
	); err != nil {
		e.logger.Warn("failed to record join activity", zap.Error(err))
	}

	e.publish(ctx, doc.ID, MessageUserJoined, UserJoinedMessage{
		Type:       MessageUserJoined,
		DocumentID: doc.ID,
		User:       UserRef{ID: user.ID, Username: user.Username},
		Timestamp:  timestamp(),
	})
	return true
}

// HandleLeave deactivates the sender's presence. Always allowed for self;
// a missing presence row is not an error.
func (e *Engine) HandleLeave(ctx context.Context, userID uint64, ev LeaveEvent) {
	doc, user, ok := e.loadActors(ctx, ev.DocumentID, userID)
	if !ok {
		e.drop(EventLeave, "not_found")
		return
	}

	if err := e.registry.Leave(ctx, doc.ID, userID); err != nil {
		e.drop(EventLeave, "storage")
		return
	}

	if err := e.registry.RecordActivity(ctx, doc.ID, userID,
		domain.ActivityUserLeft,
		fmt.Sprintf("%s left the document", user.Username),
	); err != nil {
		e.logger.Warn("failed to record leave activity", zap.Error(err))
	}

	e.publish(ctx, doc.ID, MessageUserLeft, UserLeftMessage{
		Type:       MessageUserLeft,
		DocumentID: doc.ID,
		User:       UserRef{ID: user.ID, Username: user.Username},
		Timestamp:  timestamp(),
	})
}

// HandleEdit overwrites the document content. Requires edit permission.
// Concurrent edits race with last-write-wins semantics; there is no merge.
func (e *Engine) HandleEdit(ctx context.Context, userID uint64, ev EditEvent) {
	doc, user, ok := e.loadActors(ctx, ev.DocumentID, userID)
	if !ok {
		e.drop(EventEdit, "not_found")
		return
	}

	collaborator, err := e.registry.GetCollaborator(ctx, doc.ID, userID)
	if err != nil {
		e.drop(EventEdit, "storage")
		return
	}
	if !collab.HasEditPermission(doc, userID, collaborator) {
		e.drop(EventEdit, "denied")
		return
	}

	doc.Content = ev.Content
	doc.UpdatedAt = time.Now().UTC()
	if err := e.documents.Save(ctx, doc); err != nil {
		e.drop(EventEdit, "storage")
		return
	}

	if err := e.registry.TouchActivity(ctx, doc.ID, userID); err != nil {
		e.logger.Warn("failed to touch collaborator activity", zap.Error(err))
	}

	e.publish(ctx, doc.ID, MessageContentUpdate, ContentUpdateMessage{
		Type:       MessageContentUpdate,
		DocumentID: doc.ID,
		Content:    ev.Content,
		User:       UserRef{ID: user.ID, Username: user.Username},
		Timestamp:  timestamp(),
	})
}

// HandleTitle overwrites the document title. Requires edit permission.
func (e *Engine) HandleTitle(ctx context.Context, userID uint64, ev TitleEvent) {
	doc, user, ok := e.loadActors(ctx, ev.DocumentID, userID)
	if !ok {
		e.drop(EventTitle, "not_found")
		return
	}

	collaborator, err := e.registry.GetCollaborator(ctx, doc.ID, userID)
	if err != nil {
		e.drop(EventTitle, "storage")
		return
	}
	if !collab.HasEditPermission(doc, userID, collaborator) {
		e.drop(EventTitle, "denied")
		return
	}

	doc.Title = ev.Title
	doc.UpdatedAt = time.Now().UTC()
	if err := e.documents.Save(ctx, doc); err != nil {
		e.drop(EventTitle, "storage")
		return
	}

	if err := e.registry.TouchActivity(ctx, doc.ID, userID); err != nil {
		e.logger.Warn("failed to touch collaborator activity", zap.Error(err))
	}

	e.publish(ctx, doc.ID, MessageTitleUpdate, TitleUpdateMessage{
		Type:       MessageTitleUpdate,
		DocumentID: doc.ID,
		Title:      ev.Title,
		User:       UserRef{ID: user.ID, Username: user.Username},
		Timestamp:  timestamp(),
	})
}
