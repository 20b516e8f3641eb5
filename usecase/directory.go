package usecase

import (
	"context"

	"github.com/alextanhongpin/go-fitmate/domain"
)

// KnownUsers seeds the directory when no entries are configured.
var KnownUsers = []domain.Friend{
	{Name: "예원", Email: "yeangsshi@ewhain.net"},
	{Name: "채연", Email: "cy.kim@ewhain.net"},
}

// Directory is a static, read-only user table. It stands in for a real
// user-lookup service behind domain.Directory.
type Directory struct {
	users map[string]domain.Friend
}

func NewDirectory(users ...domain.Friend) *Directory {
	if len(users) == 0 {
		users = KnownUsers
	}

	d := &Directory{
		users: make(map[string]domain.Friend, len(users)),
	}
	for _, u := range users {
		d.users[u.Email] = u
	}

	return d
}

// Resolve matches the email exactly. No trimming or case folding.
func (d *Directory) Resolve(_ context.Context, email string) (domain.Friend, error) {
	u, ok := d.users[email]
	if !ok {
		return domain.Friend{}, domain.ErrNotFound
	}

	return u, nil
}
