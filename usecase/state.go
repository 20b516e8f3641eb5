package usecase

import "github.com/alextanhongpin/go-fitmate/domain"

// DeletionState is one of Idle, ConfirmingDeletion or ShowingDeletionNotice.
type DeletionState interface {
	isDeletionState()
	Name() string
}

type Idle struct{}

type ConfirmingDeletion struct {
	Target domain.Friend
}

type ShowingDeletionNotice struct {
	Target domain.Friend
}

func (Idle) isDeletionState()                  {}
func (ConfirmingDeletion) isDeletionState()    {}
func (ShowingDeletionNotice) isDeletionState() {}

func (Idle) Name() string                  { return "idle" }
func (ConfirmingDeletion) Name() string    { return "confirming_deletion" }
func (ShowingDeletionNotice) Name() string { return "showing_deletion_notice" }

// Target returns the friend the state refers to, if any.
func Target(state DeletionState) (domain.Friend, bool) {
	switch s := state.(type) {
	case ConfirmingDeletion:
		return s.Target, true
	case ShowingDeletionNotice:
		return s.Target, true
	default:
		return domain.Friend{}, false
	}
}
