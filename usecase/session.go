package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/pkg/eventbus"
)

// SlotOpener returns the slot an owner's friend list lives in.
type SlotOpener func(owner string) domain.Slot

// Sessions hands out one FriendStore per owner. A store is loaded from its
// slot the first time it is requested and kept for the process lifetime.
type Sessions struct {
	Notices eventbus.Engine[Notice]

	open      SlotOpener
	directory domain.Directory
	logger    *zap.Logger

	mu     sync.Mutex
	stores map[string]*FriendStore
}

func NewSessions(open SlotOpener, directory domain.Directory, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sessions{
		open:      open,
		directory: directory,
		logger:    logger,
		stores:    make(map[string]*FriendStore),
	}
}

// Get returns the owner's store. When the initial load fails the store is
// still returned, empty and usable, together with the *domain.PersistenceError.
// Later calls retry the load until it succeeds and keep reporting the error
// until then.
func (s *Sessions) Get(ctx context.Context, owner string) (*FriendStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[owner]; ok {
		return store, store.Reload(ctx)
	}

	store := NewFriendStore(owner, s.open(owner), s.directory, s.logger)
	store.Notices = s.Notices
	s.stores[owner] = store

	s.logger.Info("session: started", zap.String("owner", owner))

	_, err := store.Load(ctx)
	return store, err
}
