package usecase

import (
	"fmt"

	"github.com/alextanhongpin/go-fitmate/domain"
)

const (
	EventFriendAdded       = "friend.added"
	EventRemovalRequested  = "friend.removal_requested"
	EventRemovalCancelled  = "friend.removal_cancelled"
	EventFriendRemoved     = "friend.removed"
	EventPersistenceFailed = "friend.persistence_failed"
)

// Notice is what the presentation layer gets told after a store operation.
type Notice struct {
	Owner   string        `json:"owner"`
	Event   string        `json:"event"`
	Friend  domain.Friend `json:"friend"`
	Message string        `json:"message,omitempty"`
	Err     error         `json:"-"`
}

// DeletionNotice is the text shown once a friend has been removed.
func DeletionNotice(f domain.Friend) string {
	return fmt.Sprintf("%s(%s) was removed from your friend list.", f.Name, f.Email)
}

// ConfirmationPrompt is the text shown while a removal awaits confirmation.
func ConfirmationPrompt(f domain.Friend) string {
	return fmt.Sprintf("Delete %s(%s)? You will no longer see each other's goals.", f.Name, f.Email)
}
