package sidebar

import (
	"errors"
	"net/url"
)

// HomePath is the welcome page a new chat starts from.
const HomePath = "/"

var ErrDeleteUnsupported = errors.New("chat deletion is not supported by this source")

// DuplicateChatError is returned when a dual view would show the same chat twice.
type DuplicateChatError struct {
	ChatID string
}

func (e *DuplicateChatError) Error() string {
	return "You cannot have two instances of the same chat open"
}

// ChatPath is the route of a single chat.
func ChatPath(chatID string) string {
	return "/c/" + url.PathEscape(chatID)
}

// DualViewPath is the route showing primaryID and secondaryID side by side.
func DualViewPath(primaryID, secondaryID string) (string, error) {
	if primaryID == secondaryID {
		return "", &DuplicateChatError{ChatID: secondaryID}
	}
	return ChatPath(primaryID) + "/" + url.PathEscape(secondaryID), nil
}
