package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sidebar/internal/db"
	"chat-sidebar/internal/models"
)

func newTestRepo(t *testing.T) *ChatRepo {
	t.Helper()
	database, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewChatRepo(database)
}

func TestChatRepoCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateChat(ctx, 1, "first", true)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetChat(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.True(t, got.IsPublic)
	assert.False(t, got.Pinned)
	assert.WithinDuration(t, created.LastActivityAt, got.LastActivityAt, time.Millisecond)

	_, err = repo.GetChat(ctx, 2, created.ID)
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatRepoListOrdersByActivity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	var ids []string
	for i, title := range []string{"old", "newest", "middle"} {
		chat, err := repo.CreateChat(ctx, 1, title, false)
		require.NoError(t, err)
		ids = append(ids, chat.ID)
		offsets := []time.Duration{time.Hour, 3 * time.Hour, 2 * time.Hour}
		require.NoError(t, repo.TouchChat(ctx, 1, chat.ID, base.Add(offsets[i])))
	}
	_, err := repo.CreateChat(ctx, 2, "someone else", false)
	require.NoError(t, err)

	chats, err := repo.ListChats(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, []string{chats[0].ID, chats[1].ID, chats[2].ID})
}

func TestChatRepoUpdatePatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chat, err := repo.CreateChat(ctx, 1, "draft", false)
	require.NoError(t, err)

	pinned, archived := true, true
	updated, err := repo.UpdateChat(ctx, 1, chat.ID, models.ChatPatch{Pinned: &pinned})
	require.NoError(t, err)
	assert.True(t, updated.Pinned)
	assert.False(t, updated.Archived)
	assert.Equal(t, "draft", updated.Title)

	title := "renamed"
	updated, err = repo.UpdateChat(ctx, 1, chat.ID, models.ChatPatch{Archived: &archived, Title: &title})
	require.NoError(t, err)
	assert.True(t, updated.Pinned)
	assert.True(t, updated.Archived)
	assert.Equal(t, "renamed", updated.Title)

	_, err = repo.UpdateChat(ctx, 1, chat.ID, models.ChatPatch{})
	require.ErrorIs(t, err, ErrEmptyPatch)

	_, err = repo.UpdateChat(ctx, 9, chat.ID, models.ChatPatch{Pinned: &pinned})
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatRepoHide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chat, err := repo.CreateChat(ctx, 1, "bye", false)
	require.NoError(t, err)

	require.NoError(t, repo.HideChat(ctx, 1, chat.ID))
	require.ErrorIs(t, repo.HideChat(ctx, 1, chat.ID), ErrChatNotFound)

	chats, err := repo.ListChats(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, chats)

	_, err = repo.GetChat(ctx, 1, chat.ID)
	require.ErrorIs(t, err, ErrChatNotFound)
}
