package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/pkg/eventbus"
)

// FriendStore owns one friend list and mirrors it into its slot after every
// mutation. The in-memory list is authoritative; a failed write is reported
// as a *domain.PersistenceError but never rolls the list back.
type FriendStore struct {
	// Notices receives an event after each operation. Optional.
	Notices eventbus.Engine[Notice]

	owner     string
	slot      domain.Slot
	directory domain.Directory
	logger    *zap.Logger

	mu      sync.Mutex
	friends domain.FriendList
	state   DeletionState
	// loaded is false until a read of the slot succeeds. While false the
	// slot is never written, so a failed read cannot clobber saved data.
	loaded bool
}

func NewFriendStore(owner string, slot domain.Slot, directory domain.Directory, logger *zap.Logger) *FriendStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FriendStore{
		owner:     owner,
		slot:      slot,
		directory: directory,
		logger:    logger.With(zap.String("owner", owner), zap.String("key", slot.Key())),
		friends:   domain.FriendList{},
		state:     Idle{},
	}
}

// Load replaces the in-memory list with the persisted one. A missing or
// unparsable value yields an empty list and no error. After a backend
// failure the store keeps working in memory but stays unloaded; see Reload.
func (s *FriendStore) Load(ctx context.Context) (domain.FriendList, error) {
	list, err := s.read(ctx)

	s.mu.Lock()
	s.friends = list
	s.state = Idle{}
	s.loaded = err == nil
	out := s.friends.Clone()
	s.mu.Unlock()

	if err != nil {
		return out, s.reportRead(err)
	}

	s.logger.Debug("friend: loaded", zap.Int("count", len(out)))

	return out, nil
}

// Reload retries the initial read when it failed earlier. On success the
// persisted list replaces the in-memory one; the deletion state is kept.
// It is a no-op once the store has loaded.
func (s *FriendStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	list, err := s.read(ctx)
	if err != nil {
		return s.reportRead(err)
	}

	s.mu.Lock()
	if !s.loaded {
		s.friends = list
		s.loaded = true
	}
	s.mu.Unlock()

	s.logger.Info("friend: recovered from failed load", zap.Int("count", len(list)))

	return nil
}

// Add resolves the email and appends the record. A blank email is ignored.
// Adding an email already in the list appends a second copy.
func (s *FriendStore) Add(ctx context.Context, email string) (domain.FriendList, error) {
	if strings.TrimSpace(email) == "" {
		return s.Friends(), nil
	}

	// Best effort; when the slot is still unreadable the add is kept in
	// memory only and write reports why.
	_ = s.Reload(ctx)

	friend, err := s.directory.Resolve(ctx, email)
	if err != nil {
		s.logger.Info("friend: resolve failed", zap.String("email", email), zap.Error(err))

		return s.Friends(), err
	}

	s.mu.Lock()
	s.friends = append(s.friends.Clone(), friend)
	out := s.friends.Clone()
	err = s.write(ctx, out)
	s.mu.Unlock()

	s.logger.Info("friend: added", zap.String("email", friend.Email))
	s.emit(EventFriendAdded, Notice{Friend: friend})

	return out, s.reportPersist(err)
}

// RequestRemoval stages target and moves the flow to ConfirmingDeletion.
func (s *FriendStore) RequestRemoval(target domain.Friend) error {
	s.mu.Lock()
	if _, ok := s.state.(Idle); !ok {
		state := s.state
		s.mu.Unlock()

		return fmt.Errorf("%w: cannot request removal while %s", domain.ErrInvalidTransition, state.Name())
	}
	s.state = ConfirmingDeletion{Target: target}
	s.mu.Unlock()

	s.emit(EventRemovalRequested, Notice{Friend: target, Message: ConfirmationPrompt(target)})

	return nil
}

// CancelRemoval drops the staged target without touching the list.
func (s *FriendStore) CancelRemoval() error {
	s.mu.Lock()
	pending, ok := s.state.(ConfirmingDeletion)
	if !ok {
		state := s.state
		s.mu.Unlock()

		return fmt.Errorf("%w: nothing to cancel while %s", domain.ErrInvalidTransition, state.Name())
	}
	s.state = Idle{}
	s.mu.Unlock()

	s.emit(EventRemovalCancelled, Notice{Friend: pending.Target})

	return nil
}

// ConfirmRemoval removes every record sharing the staged target's email,
// persists the result and moves the flow to ShowingDeletionNotice. The
// removed target is returned so callers can render the notice without
// racing a concurrent Acknowledge.
func (s *FriendStore) ConfirmRemoval(ctx context.Context) (domain.FriendList, domain.Friend, error) {
	_ = s.Reload(ctx)

	s.mu.Lock()
	pending, ok := s.state.(ConfirmingDeletion)
	if !ok {
		state := s.state
		out := s.friends.Clone()
		s.mu.Unlock()

		return out, domain.Friend{}, fmt.Errorf("%w: nothing to confirm while %s", domain.ErrInvalidTransition, state.Name())
	}

	updated := s.friends.Without(pending.Target.Email)
	removed := len(s.friends) - len(updated)
	s.friends = updated
	s.state = ShowingDeletionNotice{Target: pending.Target}
	out := updated.Clone()
	err := s.write(ctx, out)
	s.mu.Unlock()

	s.logger.Info("friend: removed", zap.String("email", pending.Target.Email), zap.Int("removed", removed))
	s.emit(EventFriendRemoved, Notice{Friend: pending.Target, Message: DeletionNotice(pending.Target)})

	return out, pending.Target, s.reportPersist(err)
}

// Acknowledge closes the deletion notice.
func (s *FriendStore) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(ShowingDeletionNotice); !ok {
		return fmt.Errorf("%w: no notice to acknowledge while %s", domain.ErrInvalidTransition, s.state.Name())
	}
	s.state = Idle{}

	return nil
}

// Persist makes list the current friend list and writes it to the slot,
// overwriting whatever was there.
func (s *FriendStore) Persist(ctx context.Context, list domain.FriendList) error {
	s.mu.Lock()
	s.friends = list.Clone()
	s.loaded = true
	err := s.write(ctx, s.friends)
	s.mu.Unlock()

	return s.reportPersist(err)
}

func (s *FriendStore) Friends() domain.FriendList {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.friends.Clone()
}

func (s *FriendStore) State() DeletionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *FriendStore) Owner() string {
	return s.owner
}

// write must be called with mu held so slot writes land in mutation order.
func (s *FriendStore) write(ctx context.Context, list domain.FriendList) error {
	if !s.loaded {
		return domain.ErrNotLoaded
	}

	b, err := encodeFriends(list)
	if err != nil {
		return err
	}

	return s.slot.Write(ctx, b)
}

// read fetches and decodes the slot. Malformed data decodes to an empty
// list; only backend failures are returned.
func (s *FriendStore) read(ctx context.Context) (domain.FriendList, error) {
	b, ok, err := s.slot.Read(ctx)
	if err != nil {
		return domain.FriendList{}, err
	}
	if !ok {
		return domain.FriendList{}, nil
	}

	list, err := decodeFriends(b)
	if err != nil {
		s.logger.Warn("friend: discarding malformed slot", zap.Error(err))
		return domain.FriendList{}, nil
	}

	return list, nil
}

// reportRead wraps a read failure and announces it. Call without mu.
func (s *FriendStore) reportRead(err error) error {
	perr := &domain.PersistenceError{Op: "read", Key: s.slot.Key(), Err: err}
	s.logger.Warn("friend: load failed, using in-memory list", zap.Error(err))
	s.emit(EventPersistenceFailed, Notice{Err: perr, Message: perr.Error()})

	return perr
}

// reportPersist wraps a write failure and announces it. Call without mu.
func (s *FriendStore) reportPersist(err error) error {
	if err == nil {
		return nil
	}

	perr := &domain.PersistenceError{Op: "write", Key: s.slot.Key(), Err: err}
	s.logger.Warn("friend: persist failed", zap.Error(err))
	s.emit(EventPersistenceFailed, Notice{Err: perr, Message: perr.Error()})

	return perr
}

func (s *FriendStore) emit(event string, n Notice) {
	if s.Notices == nil {
		return
	}

	n.Owner = s.owner
	n.Event = event
	if err := s.Notices.Emit(event, n); err != nil {
		s.logger.Warn("friend: notice handler failed", zap.String("event", event), zap.Error(err))
	}
}

func encodeFriends(list domain.FriendList) ([]byte, error) {
	if list == nil {
		list = domain.FriendList{}
	}

	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("friend: failed to marshal: %w", err)
	}

	return b, nil
}

func decodeFriends(b []byte) (domain.FriendList, error) {
	var list domain.FriendList
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("friend: failed to unmarshal: %w", err)
	}

	return list.Clone(), nil
}
