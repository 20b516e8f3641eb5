package domain

import "context"

// Friend is the display record of a friend relationship. Email is the
// identity key.
type Friend struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FriendList is ordered by insertion. Duplicates are allowed.
type FriendList []Friend

// Clone returns a copy that never shares the backing array. A nil or empty
// list clones to an empty, non-nil list so it encodes as [].
func (l FriendList) Clone() FriendList {
	out := make(FriendList, len(l))
	copy(out, l)
	return out
}

// Without returns the list minus every record whose email matches.
func (l FriendList) Without(email string) FriendList {
	out := make(FriendList, 0, len(l))
	for _, f := range l {
		if f.Email == email {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Directory resolves a user identifier to a friend record.
type Directory interface {
	Resolve(ctx context.Context, email string) (Friend, error)
}

// Slot is the persisted key-value entry a friend list is mirrored into.
// Read reports ok=false when nothing has been written yet.
type Slot interface {
	Read(ctx context.Context) (data []byte, ok bool, err error)
	Write(ctx context.Context, data []byte) error
	Key() string
}
