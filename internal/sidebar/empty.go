package sidebar

import "chat-sidebar/internal/models"

// EmptyState is the placeholder shown when a filter lists no chats.
type EmptyState struct {
	Title string `json:"title"`
	Hint  string `json:"hint"`
}

var emptyStates = map[models.FilterMode]EmptyState{
	models.FilterAll: {
		Title: "No conversations yet",
		Hint:  "Start a new chat to begin",
	},
	models.FilterPinned: {
		Title: "No pinned chats",
		Hint:  "Pin important conversations to keep them at the top",
	},
	models.FilterArchived: {
		Title: "No archived chats",
		Hint:  "Archive old conversations to keep your sidebar clean",
	},
}

// EmptyStateFor returns the placeholder for mode.
func EmptyStateFor(mode models.FilterMode) EmptyState {
	if state, ok := emptyStates[mode]; ok {
		return state
	}
	return emptyStates[models.FilterAll]
}
