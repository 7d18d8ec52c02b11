package sidebar

import (
	"sort"

	"chat-sidebar/internal/models"
)

// Matches reports whether chat is listed under mode. Archived chats only show
// under FilterArchived, even when pinned. Unknown modes behave as FilterAll.
func Matches(chat models.ChatRecord, mode models.FilterMode) bool {
	switch mode {
	case models.FilterPinned:
		return chat.Pinned && !chat.Archived
	case models.FilterArchived:
		return chat.Archived
	default:
		return !chat.Archived
	}
}

// FilterChats returns the chats listed under mode, in input order.
func FilterChats(chats []models.ChatRecord, mode models.FilterMode) []models.ChatRecord {
	result := make([]models.ChatRecord, 0, len(chats))
	for _, chat := range chats {
		if Matches(chat, mode) {
			result = append(result, chat)
		}
	}
	return result
}

// SortChats returns a sorted copy of chats, most recent activity first.
// Outside the pinned and archived tabs pinned chats precede unpinned ones.
// Ties keep input order.
func SortChats(chats []models.ChatRecord, mode models.FilterMode) []models.ChatRecord {
	sorted := make([]models.ChatRecord, len(chats))
	copy(sorted, chats)

	pinnedFirst := mode != models.FilterPinned && mode != models.FilterArchived
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if pinnedFirst && a.Pinned != b.Pinned {
			return a.Pinned
		}
		return a.LastActivityAt.After(b.LastActivityAt)
	})
	return sorted
}

// VisibleChats filters and sorts chats for display under mode.
func VisibleChats(chats []models.ChatRecord, mode models.FilterMode) []models.ChatRecord {
	return SortChats(FilterChats(chats, mode), mode)
}

// CountByFilter returns the number of chats listed under mode.
func CountByFilter(chats []models.ChatRecord, mode models.FilterMode) int {
	count := 0
	for _, chat := range chats {
		if Matches(chat, mode) {
			count++
		}
	}
	return count
}

// Counts returns the badge count of every filter tab.
func Counts(chats []models.ChatRecord) map[models.FilterMode]int {
	counts := make(map[models.FilterMode]int, len(models.FilterModes))
	for _, mode := range models.FilterModes {
		counts[mode] = CountByFilter(chats, mode)
	}
	return counts
}
