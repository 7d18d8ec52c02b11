// Package sidebar computes the conversation list shown in the chat sidebar
// and turns sidebar gestures into calls on its collaborators.
//
// A View is not safe for concurrent use. Hosts drive it from a single
// goroutine, the way a UI drives it from its event loop.
package sidebar

import (
	"chat-sidebar/internal/models"
)

// ChatSource owns the chat collection a View reads from.
type ChatSource interface {
	// LoadChats starts populating the collection asynchronously.
	LoadChats()
	// UpdateChat asynchronously persists a partial update.
	UpdateChat(id string, patch models.ChatPatch)
	Chats() []models.ChatRecord
	IsLoading() bool
}

// ChatDeleter is implemented by sources that can delete chats. done is called
// once the deletion has been confirmed or has failed.
type ChatDeleter interface {
	DeleteChat(id string, done func(error))
}

// Navigator moves the host UI to another route.
type Navigator interface {
	GoTo(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) GoTo(path string) { f(path) }

// Item is a chat row of a Snapshot.
type Item struct {
	models.ChatRecord
	Selected bool `json:"selected"`
	ShowPin  bool `json:"show_pin"`
}

// Snapshot is everything needed to render the sidebar.
type Snapshot struct {
	Open         bool                      `json:"open"`
	Filter       models.FilterMode         `json:"filter"`
	Chats        []Item                    `json:"chats"`
	Counts       map[models.FilterMode]int `json:"counts"`
	ActiveChatID string                    `json:"active_chat_id,omitempty"`
	Loading      bool                      `json:"loading"`
	Skeleton     bool                      `json:"skeleton"`
	Empty        *EmptyState               `json:"empty,omitempty"`
}

// View is the conversation list of one sidebar.
type View struct {
	source         ChatSource
	visibility     Visibility
	nav            Navigator
	onOpenSettings func()

	filter       models.FilterMode
	activeChatID string
	unsubscribe  func()
}

// Option configures a View.
type Option func(*View)

// WithSettingsHandler sets the callback run by OpenSettings.
func WithSettingsHandler(fn func()) Option {
	return func(v *View) {
		v.onOpenSettings = fn
	}
}

// WithActiveChat sets the chat currently shown by the host.
func WithActiveChat(chatID string) Option {
	return func(v *View) {
		v.activeChatID = chatID
	}
}

// NewView builds a View and starts watching visibility. If the sidebar is
// already open with nothing loaded, the first load is requested right away.
func NewView(source ChatSource, visibility Visibility, nav Navigator, opts ...Option) *View {
	v := &View{
		source:     source,
		visibility: visibility,
		nav:        nav,
		filter:     models.FilterAll,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.unsubscribe = visibility.Subscribe(v.visibilityChanged)
	v.visibilityChanged(visibility.IsOpen())
	return v
}

// Close stops watching visibility.
func (v *View) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

func (v *View) visibilityChanged(open bool) {
	if !open || v.source.IsLoading() {
		return
	}
	if len(v.source.Chats()) == 0 {
		v.source.LoadChats()
	}
}

// Filter returns the selected filter tab.
func (v *View) Filter() models.FilterMode {
	return v.filter
}

// SetFilter selects a filter tab.
func (v *View) SetFilter(mode models.FilterMode) {
	v.filter = mode
}

// ActiveChatID returns the chat currently shown by the host.
func (v *View) ActiveChatID() string {
	return v.activeChatID
}

// SetActiveChat records the chat the host is showing after a route change.
func (v *View) SetActiveChat(chatID string) {
	v.activeChatID = chatID
}

// VisibleChats returns the chats listed under the current filter.
func (v *View) VisibleChats() []models.ChatRecord {
	return VisibleChats(v.source.Chats(), v.filter)
}

// Counts returns the badge count of every filter tab.
func (v *View) Counts() map[models.FilterMode]int {
	return Counts(v.source.Chats())
}

// SelectChat opens chat.
func (v *View) SelectChat(chat models.ChatRecord) {
	v.nav.GoTo(ChatPath(chat.ID))
}

// NewChat returns to the welcome page.
func (v *View) NewChat() {
	v.nav.GoTo(HomePath)
}

// OpenDualView shows secondary next to the chat primaryID. Opening a chat
// next to itself fails with *DuplicateChatError and navigates nowhere.
func (v *View) OpenDualView(primaryID string, secondary models.ChatRecord) error {
	path, err := DualViewPath(primaryID, secondary.ID)
	if err != nil {
		return err
	}
	v.nav.GoTo(path)
	return nil
}

// TogglePin requests chat's pinned flag to be flipped.
func (v *View) TogglePin(chat models.ChatRecord) {
	pinned := !chat.Pinned
	v.source.UpdateChat(chat.ID, models.ChatPatch{Pinned: &pinned})
}

// ToggleArchive requests chat's archived flag to be flipped.
func (v *View) ToggleArchive(chat models.ChatRecord) {
	archived := !chat.Archived
	v.source.UpdateChat(chat.ID, models.ChatPatch{Archived: &archived})
}

// DeleteChat asks the source to delete the chat. It leaves the visible list
// once the source confirms. done may be nil.
func (v *View) DeleteChat(chatID string, done func(error)) error {
	deleter, ok := v.source.(ChatDeleter)
	if !ok {
		return ErrDeleteUnsupported
	}
	deleter.DeleteChat(chatID, done)
	return nil
}

// ToggleSidebar shows or hides the sidebar.
func (v *View) ToggleSidebar() {
	v.visibility.Toggle()
}

// OpenSettings runs the host's settings callback.
func (v *View) OpenSettings() {
	if v.onOpenSettings != nil {
		v.onOpenSettings()
	}
}

// Find returns the chat with id from the source collection.
func (v *View) Find(chatID string) (models.ChatRecord, bool) {
	for _, chat := range v.source.Chats() {
		if chat.ID == chatID {
			return chat, true
		}
	}
	return models.ChatRecord{}, false
}

// Snapshot renders the current state.
func (v *View) Snapshot() Snapshot {
	all := v.source.Chats()
	loading := v.source.IsLoading()
	visible := VisibleChats(all, v.filter)

	items := make([]Item, 0, len(visible))
	for _, chat := range visible {
		items = append(items, Item{
			ChatRecord: chat,
			Selected:   chat.ID == v.activeChatID,
			ShowPin:    chat.Pinned && v.filter == models.FilterAll,
		})
	}

	snap := Snapshot{
		Open:         v.visibility.IsOpen(),
		Filter:       v.filter,
		Chats:        items,
		Counts:       Counts(all),
		ActiveChatID: v.activeChatID,
		Loading:      loading,
		Skeleton:     loading && len(all) == 0,
	}
	if !snap.Skeleton && len(items) == 0 {
		empty := EmptyStateFor(v.filter)
		snap.Empty = &empty
	}
	return snap
}
