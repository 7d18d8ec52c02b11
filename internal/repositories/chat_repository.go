package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"chat-sidebar/internal/models"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrEmptyPatch   = errors.New("empty chat patch")
)

const chatColumns = `id, owner_id, title, pinned, archived, is_public, hidden, created_at, last_activity_at`

// ChatRepository abstracts chat persistence. Every call is scoped to the
// owning user; chats of other users behave as missing.
type ChatRepository interface {
	CreateChat(ctx context.Context, ownerID int, title string, isPublic bool) (models.ChatRecord, error)
	GetChat(ctx context.Context, ownerID int, chatID string) (models.ChatRecord, error)
	ListChats(ctx context.Context, ownerID int) ([]models.ChatRecord, error)
	UpdateChat(ctx context.Context, ownerID int, chatID string, patch models.ChatPatch) (models.ChatRecord, error)
	HideChat(ctx context.Context, ownerID int, chatID string) error
	TouchChat(ctx context.Context, ownerID int, chatID string, at time.Time) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat stores a new chat owned by ownerID.
func (r *ChatRepo) CreateChat(ctx context.Context, ownerID int, title string, isPublic bool) (models.ChatRecord, error) {
	now := time.Now().UTC()
	chat := models.ChatRecord{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          title,
		IsPublic:       isPublic,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	query := r.db.Rebind(`INSERT INTO chats (id, owner_id, title, pinned, archived, is_public, hidden, created_at, last_activity_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, chat.ID, chat.OwnerID, chat.Title, false, false, chat.IsPublic, false, chat.CreatedAt, chat.LastActivityAt); err != nil {
		return models.ChatRecord{}, errors.Wrap(err, "inserting chat")
	}
	return chat, nil
}

// GetChat fetches a visible chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, ownerID int, chatID string) (models.ChatRecord, error) {
	var chat models.ChatRecord
	query := r.db.Rebind(`SELECT ` + chatColumns + ` FROM chats WHERE id = ? AND owner_id = ? AND hidden = ?`)
	err := r.db.GetContext(ctx, &chat, query, chatID, ownerID, false)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRecord{}, ErrChatNotFound
	}
	if err != nil {
		return models.ChatRecord{}, errors.Wrap(err, "querying chat")
	}
	return chat, nil
}

// ListChats returns the visible chats of ownerID, most recent activity first.
func (r *ChatRepo) ListChats(ctx context.Context, ownerID int) ([]models.ChatRecord, error) {
	query := r.db.Rebind(`SELECT ` + chatColumns + ` FROM chats
        WHERE owner_id = ? AND hidden = ?
        ORDER BY last_activity_at DESC`)
	chats := []models.ChatRecord{}
	if err := r.db.SelectContext(ctx, &chats, query, ownerID, false); err != nil {
		return nil, errors.Wrap(err, "listing chats")
	}
	return chats, nil
}

// UpdateChat applies patch and returns the stored chat.
func (r *ChatRepo) UpdateChat(ctx context.Context, ownerID int, chatID string, patch models.ChatPatch) (models.ChatRecord, error) {
	if patch.IsEmpty() {
		return models.ChatRecord{}, ErrEmptyPatch
	}

	var setClauses []string
	var args []interface{}
	if patch.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Pinned != nil {
		setClauses = append(setClauses, "pinned = ?")
		args = append(args, *patch.Pinned)
	}
	if patch.Archived != nil {
		setClauses = append(setClauses, "archived = ?")
		args = append(args, *patch.Archived)
	}
	if patch.IsPublic != nil {
		setClauses = append(setClauses, "is_public = ?")
		args = append(args, *patch.IsPublic)
	}
	args = append(args, chatID, ownerID, false)

	query := r.db.Rebind(`UPDATE chats SET ` + strings.Join(setClauses, ", ") + ` WHERE id = ? AND owner_id = ? AND hidden = ?`)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.ChatRecord{}, errors.Wrap(err, "updating chat")
	}
	if err := requireAffected(res); err != nil {
		return models.ChatRecord{}, err
	}
	return r.GetChat(ctx, ownerID, chatID)
}

// HideChat removes the chat from its owner's list. The row is kept.
func (r *ChatRepo) HideChat(ctx context.Context, ownerID int, chatID string) error {
	query := r.db.Rebind(`UPDATE chats SET hidden = ? WHERE id = ? AND owner_id = ? AND hidden = ?`)
	res, err := r.db.ExecContext(ctx, query, true, chatID, ownerID, false)
	if err != nil {
		return errors.Wrap(err, "hiding chat")
	}
	return requireAffected(res)
}

// TouchChat records activity on the chat at the given time.
func (r *ChatRepo) TouchChat(ctx context.Context, ownerID int, chatID string, at time.Time) error {
	query := r.db.Rebind(`UPDATE chats SET last_activity_at = ? WHERE id = ? AND owner_id = ? AND hidden = ?`)
	res, err := r.db.ExecContext(ctx, query, at.UTC(), chatID, ownerID, false)
	if err != nil {
		return errors.Wrap(err, "touching chat")
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}
