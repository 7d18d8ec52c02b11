package models

import (
	"errors"
	"time"
)

// ChatRecord is a conversation as shown in the sidebar.
type ChatRecord struct {
	ID             string    `db:"id" json:"id"`
	OwnerID        int       `db:"owner_id" json:"-"`
	Title          string    `db:"title" json:"title"`
	Pinned         bool      `db:"pinned" json:"pinned"`
	Archived       bool      `db:"archived" json:"archived"`
	IsPublic       bool      `db:"is_public" json:"is_public"`
	Hidden         bool      `db:"hidden" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
}

// ChatPatch is a partial update of a chat. Nil fields are left untouched.
type ChatPatch struct {
	Title    *string `json:"title,omitempty"`
	Pinned   *bool   `json:"pinned,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
	IsPublic *bool   `json:"is_public,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ChatPatch) IsEmpty() bool {
	return p.Title == nil && p.Pinned == nil && p.Archived == nil && p.IsPublic == nil
}

// ApplyTo returns chat with the patch fields applied.
func (p ChatPatch) ApplyTo(chat ChatRecord) ChatRecord {
	if p.Title != nil {
		chat.Title = *p.Title
	}
	if p.Pinned != nil {
		chat.Pinned = *p.Pinned
	}
	if p.Archived != nil {
		chat.Archived = *p.Archived
	}
	if p.IsPublic != nil {
		chat.IsPublic = *p.IsPublic
	}
	return chat
}

// Chat event types.
const (
	ChatEventCreated = "chat_created"
	ChatEventUpdated = "chat_updated"
	ChatEventDeleted = "chat_deleted"
)

// ChatEvent is emitted after a chat change has been persisted.
type ChatEvent struct {
	Type   string      `json:"type"`
	Chat   *ChatRecord `json:"chat,omitempty"`
	ChatID string      `json:"chat_id,omitempty"`
}

// FilterMode selects which chats the sidebar lists.
type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterPinned   FilterMode = "pinned"
	FilterArchived FilterMode = "archived"
)

// FilterModes lists every mode in tab order.
var FilterModes = []FilterMode{FilterAll, FilterPinned, FilterArchived}

var ErrInvalidFilter = errors.New("invalid filter")

// ParseFilterMode parses a filter name. The empty string means FilterAll.
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPinned:
		return FilterPinned, nil
	case FilterArchived:
		return FilterArchived, nil
	default:
		return FilterAll, ErrInvalidFilter
	}
}
