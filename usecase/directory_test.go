package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

func TestDirectory_DefaultsToKnownUsers(t *testing.T) {
	dir := usecase.NewDirectory()

	for _, want := range usecase.KnownUsers {
		got, err := dir.Resolve(context.Background(), want.Email)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := dir.Resolve(context.Background(), "cy.kim@ewhain.net")
	require.NoError(t, err)
	assert.Equal(t, domain.Friend{Name: "채연", Email: "cy.kim@ewhain.net"}, got)
}

func TestDirectory_Resolve(t *testing.T) {
	dir := usecase.NewDirectory(friendA)

	tests := []struct {
		email   string
		want    domain.Friend
		wantErr error
	}{
		{email: "a@x.com", want: friendA},
		{email: "A@x.com", wantErr: domain.ErrNotFound},
		{email: "a@x.com ", wantErr: domain.ErrNotFound},
		{email: "a@x", wantErr: domain.ErrNotFound},
		{email: "", wantErr: domain.ErrNotFound},
	}

	for _, tc := range tests {
		got, err := dir.Resolve(context.Background(), tc.email)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, tc.email)
			assert.Equal(t, domain.Friend{}, got)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestDirectory_NotFoundMessage(t *testing.T) {
	_, err := usecase.NewDirectory(friendA).Resolve(context.Background(), "b@x.com")
	assert.EqualError(t, err, "no user found with this email")
}
