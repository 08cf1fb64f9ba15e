package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr []error
	}{
		{name: "valid", creds: Credentials{Username: "alice", Password: "hunter22"}},
		{name: "short password", creds: Credentials{Username: "alice", Password: "hunter2"}, wantErr: []error{ErrPasswordTooShort}},
		{name: "missing password", creds: Credentials{Username: "alice"}, wantErr: []error{ErrEmptyPassword}},
		{name: "blank username", creds: Credentials{Username: "  ", Password: "longenough"}, wantErr: []error{ErrEmptyUsername}},
		{name: "both bad", creds: Credentials{}, wantErr: []error{ErrEmptyUsername, ErrEmptyPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestTokenPair_Validate(t *testing.T) {
	assert.NoError(t, TokenPair{AccessToken: "tok123", TokenType: "bearer"}.Validate())
	assert.ErrorIs(t, TokenPair{TokenType: "bearer"}.Validate(), ErrEmptyAccessToken)
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(401, "token expired")
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "api error 401: token expired", err.Error())

	transport := NewTransportError(assert.AnError)
	assert.Equal(t, 500, transport.Code)
	assert.ErrorIs(t, transport, assert.AnError)
	assert.False(t, IsUnauthorized(transport))
}

func TestCredentials_RequireFields(t *testing.T) {
	assert.NoError(t, Credentials{Username: "alice", Password: "hunter2"}.RequireFields())
	assert.ErrorIs(t, Credentials{Password: "hunter2"}.RequireFields(), ErrEmptyUsername)
	assert.ErrorIs(t, Credentials{Username: "alice"}.RequireFields(), ErrEmptyPassword)

	// The form rule is stricter
	assert.ErrorIs(t, Credentials{Username: "alice", Password: "hunter2"}.Validate(), ErrPasswordTooShort)
}
