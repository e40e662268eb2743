package realtime

import (
	"encoding/json"
	"fmt"
)

// Client event kinds accepted on a document channel.
const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventEdit  = "edit"
	EventTitle = "title"
)

// Broadcast message kinds. These payload shapes are a compatibility
// contract for channel consumers.
const (
	MessageUserJoined    = "user_joined"
	MessageUserLeft      = "user_left"
	MessageContentUpdate = "content_update"
	MessageTitleUpdate   = "title_update"
)

// JoinEvent subscribes the sender to a document channel.
type JoinEvent struct {
	DocumentID uint64 `json:"documentId"`
}

// LeaveEvent removes the sender's presence from a document.
type LeaveEvent struct {
	DocumentID uint64 `json:"documentId"`
}

// EditEvent replaces the full document content (last write wins).
type EditEvent struct {
	DocumentID uint64 `json:"documentId"`
	Content    string `json:"content"`
}

// TitleEvent replaces the document title.
type TitleEvent struct {
	DocumentID uint64 `json:"documentId"`
	Title      string `json:"title"`
}

// frame is the wire envelope for inbound client events.
type frame struct {
	Type       string `json:"type"`
	DocumentID uint64 `json:"documentId"`
	Content    string `json:"content"`
	Title      string `json:"title"`
}

// DecodeEvent parses an inbound frame into its typed variant. Returning
// distinct types keeps the dispatch in the hub exhaustive.
func DecodeEvent(raw []byte) (any, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if f.DocumentID == 0 {
		return nil, fmt.Errorf("documentId is required")
	}

	switch f.Type {
	case EventJoin:
		return JoinEvent{DocumentID: f.DocumentID}, nil
	case EventLeave:
		return LeaveEvent{DocumentID: f.DocumentID}, nil
	case EventEdit:
		return EditEvent{DocumentID: f.DocumentID, Content: f.Content}, nil
	case EventTitle:
		return TitleEvent{DocumentID: f.DocumentID, Title: f.Title}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", f.Type)
	}
}

// UserRef identifies the acting user inside broadcast payloads.
type UserRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

type UserJoinedMessage struct {
	Type       string  `json:"type"`
	DocumentID uint64  `json:"documentId"`
	User       UserRef `json:"user"`
	Timestamp  string  `json:"timestamp"`
}

type UserLeftMessage struct {
	Type       string  `json:"type"`
	DocumentID uint64  `json:"documentId"`
	User       UserRef `json:"user"`
	Timestamp  string  `json:"timestamp"`
}

type ContentUpdateMessage struct {
	Type       string  `json:"type"`
	DocumentID uint64  `json:"documentId"`
	Content    string  `json:"content"`
	User       UserRef `json:"user"`
	Timestamp  string  `json:"timestamp"`
}

type TitleUpdateMessage struct {
	Type       string  `json:"type"`
	DocumentID uint64  `json:"documentId"`
	Title      string  `json:"title"`
	User       UserRef `json:"user"`
	Timestamp  string  `json:"timestamp"`
}

// ChannelFor returns the pub/sub channel key for a document.
func ChannelFor(docID uint64) string {
	return fmt.Sprintf("document.%d", docID)
}
