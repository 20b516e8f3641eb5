package domain

// User is the owner of a friend list. The email doubles as the ticket
// subject.
type User struct {
	Email string `json:"email"`
}

type Credential struct {
	AccessToken string `json:"accessToken"`
}
