package sidebar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sidebar/internal/models"
)

type update struct {
	id    string
	patch models.ChatPatch
}

type fakeSource struct {
	chats   []models.ChatRecord
	loading bool
	loads   int
	updates []update
}

func (s *fakeSource) LoadChats() {
	s.loads++
	s.loading = true
}

func (s *fakeSource) UpdateChat(id string, patch models.ChatPatch) {
	s.updates = append(s.updates, update{id: id, patch: patch})
}

func (s *fakeSource) Chats() []models.ChatRecord { return s.chats }
func (s *fakeSource) IsLoading() bool             { return s.loading }

type deletingSource struct {
	fakeSource
	deleted []string
}

func (s *deletingSource) DeleteChat(id string, done func(error)) {
	s.deleted = append(s.deleted, id)
	if done != nil {
		done(nil)
	}
}

type recorder struct {
	paths []string
}

func (r *recorder) GoTo(path string) { r.paths = append(r.paths, path) }

func TestNewViewLoadsWhenOpenAndEmpty(t *testing.T) {
	source := &fakeSource{}
	NewView(source, NewVisibilityStore(true), &recorder{})
	require.Equal(t, 1, source.loads)
}

func TestNewViewSkipsLoadWhenClosed(t *testing.T) {
	source := &fakeSource{}
	visibility := NewVisibilityStore(false)
	view := NewView(source, visibility, &recorder{})
	require.Zero(t, source.loads)

	view.ToggleSidebar()
	require.True(t, visibility.IsOpen())
	require.Equal(t, 1, source.loads)
}

func TestVisibilityToggleWhileLoadingIsNoop(t *testing.T) {
	source := &fakeSource{}
	visibility := NewVisibilityStore(true)
	NewView(source, visibility, &recorder{})
	require.Equal(t, 1, source.loads)

	visibility.Toggle()
	visibility.Toggle()
	require.Equal(t, 1, source.loads, "load already in flight")

	source.loading = false
	visibility.Toggle()
	visibility.Toggle()
	require.Equal(t, 2, source.loads, "still empty and idle, load again")
}

func TestNoLoadWhenChatsPresent(t *testing.T) {
	source := &fakeSource{chats: []models.ChatRecord{chat("1", false, false, 0)}}
	NewView(source, NewVisibilityStore(true), &recorder{})
	require.Zero(t, source.loads)
}

func TestCloseStopsWatching(t *testing.T) {
	source := &fakeSource{}
	visibility := NewVisibilityStore(false)
	view := NewView(source, visibility, &recorder{})
	view.Close()

	visibility.Toggle()
	require.Zero(t, source.loads)
}

func TestSelectAndNewChatNavigate(t *testing.T) {
	nav := &recorder{}
	view := NewView(&fakeSource{}, NewVisibilityStore(false), nav)

	view.SelectChat(chat("42", false, false, 0))
	view.NewChat()

	require.Equal(t, []string{"/c/42", "/"}, nav.paths)
}

func TestOpenDualViewDuplicate(t *testing.T) {
	nav := &recorder{}
	view := NewView(&fakeSource{}, NewVisibilityStore(false), nav)

	err := view.OpenDualView("A", models.ChatRecord{ID: "A"})

	var dup *DuplicateChatError
	require.True(t, errors.As(err, &dup))
	require.Empty(t, nav.paths)
}

func TestOpenDualView(t *testing.T) {
	nav := &recorder{}
	view := NewView(&fakeSource{}, NewVisibilityStore(false), nav)

	require.NoError(t, view.OpenDualView("A", models.ChatRecord{ID: "B"}))
	require.Equal(t, []string{"/c/A/B"}, nav.paths)
}

func TestTogglePinAndArchive(t *testing.T) {
	source := &fakeSource{}
	view := NewView(source, NewVisibilityStore(false), &recorder{})

	view.TogglePin(chat("1", true, false, 0))
	view.ToggleArchive(chat("2", false, false, 0))

	require.Len(t, source.updates, 2)
	require.Equal(t, "1", source.updates[0].id)
	require.NotNil(t, source.updates[0].patch.Pinned)
	assert.False(t, *source.updates[0].patch.Pinned)
	assert.Nil(t, source.updates[0].patch.Archived)

	require.Equal(t, "2", source.updates[1].id)
	require.NotNil(t, source.updates[1].patch.Archived)
	assert.True(t, *source.updates[1].patch.Archived)
	assert.Nil(t, source.updates[1].patch.Pinned)
}

func TestDeleteChat(t *testing.T) {
	view := NewView(&fakeSource{}, NewVisibilityStore(false), &recorder{})
	require.ErrorIs(t, view.DeleteChat("1", nil), ErrDeleteUnsupported)

	source := &deletingSource{}
	view = NewView(source, NewVisibilityStore(false), &recorder{})
	var confirmed error = errors.New("not called")
	require.NoError(t, view.DeleteChat("1", func(err error) { confirmed = err }))
	require.Equal(t, []string{"1"}, source.deleted)
	require.NoError(t, confirmed)
}

func TestOpenSettings(t *testing.T) {
	calls := 0
	view := NewView(&fakeSource{}, NewVisibilityStore(false), &recorder{}, WithSettingsHandler(func() { calls++ }))
	view.OpenSettings()
	require.Equal(t, 1, calls)

	NewView(&fakeSource{}, NewVisibilityStore(false), &recorder{}).OpenSettings()
}

func TestSnapshot(t *testing.T) {
	source := &fakeSource{chats: []models.ChatRecord{
		chat("1", true, false, 1),
		chat("2", false, false, 2),
		chat("3", false, true, 3),
	}}
	view := NewView(source, NewVisibilityStore(true), &recorder{}, WithActiveChat("2"))

	snap := view.Snapshot()
	require.True(t, snap.Open)
	require.Equal(t, models.FilterAll, snap.Filter)
	require.Len(t, snap.Chats, 2)
	assert.Equal(t, "1", snap.Chats[0].ID)
	assert.True(t, snap.Chats[0].ShowPin)
	assert.True(t, snap.Chats[1].Selected)
	assert.Equal(t, map[models.FilterMode]int{models.FilterAll: 2, models.FilterPinned: 1, models.FilterArchived: 1}, snap.Counts)
	assert.Nil(t, snap.Empty)

	view.SetFilter(models.FilterPinned)
	snap = view.Snapshot()
	require.Len(t, snap.Chats, 1)
	assert.False(t, snap.Chats[0].ShowPin)

	source.chats = source.chats[1:]
	snap = view.Snapshot()
	require.Empty(t, snap.Chats)
	require.NotNil(t, snap.Empty)
	assert.Equal(t, "No pinned chats", snap.Empty.Title)
}

func TestSnapshotSkeletonWhileFirstLoad(t *testing.T) {
	source := &fakeSource{}
	view := NewView(source, NewVisibilityStore(true), &recorder{})

	snap := view.Snapshot()
	require.True(t, snap.Loading)
	require.True(t, snap.Skeleton)
	require.Nil(t, snap.Empty)
}

func TestFind(t *testing.T) {
	source := &fakeSource{chats: []models.ChatRecord{chat("1", false, false, 0)}}
	view := NewView(source, NewVisibilityStore(false), &recorder{})

	found, ok := view.Find("1")
	require.True(t, ok)
	require.Equal(t, "1", found.ID)
	_, ok = view.Find("nope")
	require.False(t, ok)
}
