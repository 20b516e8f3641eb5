package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var (
	ErrTicketExpired = errors.New("ticket: expired")
	ErrTicketInvalid = errors.New("ticket: invalid")
	ErrEmptySubject  = errors.New("ticket: empty subject")
)

// Issuer hands out tickets naming the owner of a friend list.
type Issuer interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
}

type Ticket struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

func New(secret []byte, expiresIn time.Duration) *Ticket {
	return &Ticket{
		secret:    secret,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (t *Ticket) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	now := t.now()
	claims := &jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(t.expiresIn).Unix(),
		Subject:   subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("ticket: failed to sign string: %w", err)
	}

	return ss, nil
}

func (t *Ticket) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.StandardClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("ticket: unexpected signing method: %v", token.Header["alg"])
		}

		return t.secret, nil
	})

	var verr *jwt.ValidationError
	if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
		return "", ErrTicketExpired
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTicketInvalid, err)
	}

	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTicketInvalid
	}

	return claims.Subject, nil
}
