package chatstore

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-sidebar/internal/mocks"
	"chat-sidebar/internal/models"
)

const userID = 7

func boolPtr(v bool) *bool { return &v }

func seed() []models.ChatRecord {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.ChatRecord{
		{ID: "a", OwnerID: userID, Title: "Alpha", LastActivityAt: now},
		{ID: "b", OwnerID: userID, Title: "Beta", Pinned: true, LastActivityAt: now.Add(-time.Hour)},
	}
}

func loaded(t *testing.T, repo *mocks.ChatRepositoryMock, opts ...Option) *Store {
	t.Helper()
	repo.On("ListChats", mock.Anything, userID).Return(seed(), nil).Once()
	store := New(repo, userID, opts...)
	t.Cleanup(store.Close)

	store.LoadChats()
	require.Eventually(t, func() bool { return !store.IsLoading() && len(store.Chats()) == 2 }, time.Second, 5*time.Millisecond)
	return store
}

func find(chats []models.ChatRecord, id string) (models.ChatRecord, bool) {
	for _, chat := range chats {
		if chat.ID == id {
			return chat, true
		}
	}
	return models.ChatRecord{}, false
}

func TestLoadChatsSetsLoadingAndReplacesCollection(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	release := make(chan struct{})
	repo.On("ListChats", mock.Anything, userID).
		Run(func(mock.Arguments) { <-release }).
		Return(seed(), nil).Once()

	store := New(repo, userID)
	defer store.Close()

	store.LoadChats()
	assert.True(t, store.IsLoading())
	store.LoadChats()

	close(release)
	require.Eventually(t, func() bool { return !store.IsLoading() }, time.Second, 5*time.Millisecond)
	assert.Len(t, store.Chats(), 2)
	repo.AssertNumberOfCalls(t, "ListChats", 1)
}

func TestLoadChatsFailureKeepsCollection(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	repo.On("ListChats", mock.Anything, userID).Return(nil, errors.New("db down")).Once()

	store := New(repo, userID)
	defer store.Close()

	store.LoadChats()
	require.Eventually(t, func() bool { return !store.IsLoading() }, time.Second, 5*time.Millisecond)
	assert.Empty(t, store.Chats())
	assert.EqualError(t, store.Err(), "db down")
}

func TestUpdateChatAppliesOptimisticallyAndNotifies(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	store := loaded(t, repo, WithNotifier(notifier))

	patch := models.ChatPatch{Pinned: boolPtr(true)}
	release := make(chan struct{})
	persisted := seed()[0]
	persisted.Pinned = true
	repo.On("UpdateChat", mock.Anything, userID, "a", patch).Run(func(mock.Arguments) { <-release }).Return(persisted, nil).Once()

	var sent atomic.Bool
	notifier.On("Notify", mock.Anything, userID, mock.MatchedBy(func(event models.ChatEvent) bool {
		return event.Type == models.ChatEventUpdated && event.Chat != nil && event.Chat.ID == "a"
	})).Run(func(mock.Arguments) { sent.Store(true) }).Once()

	store.UpdateChat("a", patch)
	chat, ok := find(store.Chats(), "a")
	require.True(t, ok)
	assert.True(t, chat.Pinned)

	close(release)
	require.Eventually(t, sent.Load, time.Second, 5*time.Millisecond)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestUpdateChatFailureReloads(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := loaded(t, repo)

	patch := models.ChatPatch{Archived: boolPtr(true)}
	repo.On("UpdateChat", mock.Anything, userID, "a", patch).Return(nil, errors.New("write failed")).Once()
	repo.On("ListChats", mock.Anything, userID).Return(seed(), nil).Once()

	store.UpdateChat("a", patch)
	require.Eventually(t, func() bool {
		chat, ok := find(store.Chats(), "a")
		return ok && !chat.Archived && store.Err() != nil
	}, time.Second, 5*time.Millisecond)
	assert.EqualError(t, store.Err(), "write failed")
	repo.AssertNumberOfCalls(t, "ListChats", 2)
}

func TestUpdateChatEmptyPatchIsIgnored(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := loaded(t, repo)

	store.UpdateChat("a", models.ChatPatch{})
	time.Sleep(20 * time.Millisecond)
	repo.AssertNotCalled(t, "UpdateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWritesArePersistedInOrder(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := loaded(t, repo)

	var mu sync.Mutex
	var order []string
	record := func(id string) func(mock.Arguments) {
		return func(mock.Arguments) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
		}
	}
	first := models.ChatPatch{Pinned: boolPtr(false)}
	second := models.ChatPatch{Title: func() *string { s := "Renamed"; return &s }()}
	repo.On("UpdateChat", mock.Anything, userID, "b", first).Run(record("first")).Return(seed()[1], nil).Once()
	repo.On("UpdateChat", mock.Anything, userID, "a", second).Run(record("second")).Return(seed()[0], nil).Once()
	repo.On("HideChat", mock.Anything, userID, "a").Run(record("delete")).Return(nil).Once()

	store.UpdateChat("b", first)
	store.UpdateChat("a", second)
	done := make(chan error, 1)
	store.DeleteChat("a", func(err error) { done <- err })

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("delete did not complete")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "delete"}, order)
}

func TestDeleteChatRemovesAfterConfirmation(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	store := loaded(t, repo, WithNotifier(notifier))

	repo.On("HideChat", mock.Anything, userID, "b").Return(nil).Once()
	notifier.On("Notify", mock.Anything, userID, models.ChatEvent{Type: models.ChatEventDeleted, ChatID: "b"}).Once()

	done := make(chan error, 1)
	store.DeleteChat("b", func(err error) { done <- err })
	require.NoError(t, <-done)

	_, ok := find(store.Chats(), "b")
	assert.False(t, ok)
	notifier.AssertExpectations(t)
}

func TestDeleteChatFailureKeepsChat(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := loaded(t, repo)

	repo.On("HideChat", mock.Anything, userID, "b").Return(errors.New("nope")).Once()

	done := make(chan error, 1)
	store.DeleteChat("b", func(err error) { done <- err })
	assert.EqualError(t, <-done, "nope")

	_, ok := find(store.Chats(), "b")
	assert.True(t, ok)
}

func TestApplyMergesRemoteEvents(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := loaded(t, repo)

	var changes atomic.Int32
	unsubscribe := store.OnChange(func() { changes.Add(1) })
	defer unsubscribe()

	created := models.ChatRecord{ID: "c", OwnerID: userID, Title: "Gamma"}
	store.Apply(models.ChatEvent{Type: models.ChatEventCreated, Chat: &created, ChatID: "c"})
	store.Apply(models.ChatEvent{Type: models.ChatEventDeleted, ChatID: "a"})
	store.Apply(models.ChatEvent{Type: "unknown"})

	chats := store.Chats()
	_, hasC := find(chats, "c")
	_, hasA := find(chats, "a")
	assert.True(t, hasC)
	assert.False(t, hasA)
	assert.Equal(t, int32(2), changes.Load())
	repo.AssertNotCalled(t, "UpdateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatsReturnsCopy(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := loaded(t, repo)

	chats := store.Chats()
	chats[0].Title = "mutated"
	chat, _ := find(store.Chats(), chats[0].ID)
	assert.NotEqual(t, "mutated", chat.Title)
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	store := New(repo, userID)
	store.Close()

	done := make(chan error, 1)
	store.DeleteChat("a", func(err error) { done <- err })
	assert.ErrorIs(t, <-done, ErrClosed)

	store.LoadChats()
	assert.False(t, store.IsLoading())
}

func TestLoadRacingWriteQueriesAgain(t *testing.T) {
	repo := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierMock)
	store := loaded(t, repo, WithNotifier(notifier))

	patch := models.ChatPatch{Pinned: boolPtr(true)}
	persisted := seed()[0]
	persisted.Pinned = true
	fresh := seed()
	fresh[0] = persisted

	release := make(chan struct{})
	listing := make(chan struct{})
	repo.On("ListChats", mock.Anything, userID).
		Run(func(mock.Arguments) {
			close(listing)
			<-release
		}).
		Return(seed(), nil).Once()
	repo.On("ListChats", mock.Anything, userID).Return(fresh, nil).Once()
	repo.On("UpdateChat", mock.Anything, userID, "a", patch).Return(persisted, nil).Once()

	emitted := make(chan struct{})
	notifier.On("Notify", mock.Anything, userID, mock.Anything).
		Run(func(mock.Arguments) { close(emitted) }).Once()

	store.LoadChats()
	<-listing
	store.UpdateChat("a", patch)
	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("update was not persisted")
	}

	close(release)
	require.Eventually(t, func() bool { return !store.IsLoading() }, time.Second, 5*time.Millisecond)
	chat, ok := find(store.Chats(), "a")
	require.True(t, ok)
	assert.True(t, chat.Pinned)
	repo.AssertNumberOfCalls(t, "ListChats", 3)
}
