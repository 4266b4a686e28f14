package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthError(t *testing.T) {
	t.Run("matches the sentinel of its kind", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := fmt.Errorf("login: %w", NewAuthError(KindNetwork, "could not reach the server", cause))

		assert.ErrorIs(t, err, ErrNetwork)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrServer)
		assert.Equal(t, KindNetwork, KindOf(err))
	})

	t.Run("kind of a plain error is zero", func(t *testing.T) {
		assert.Equal(t, Kind(0), KindOf(errors.New("x")))
	})

	t.Run("message includes reason", func(t *testing.T) {
		err := NewAuthError(KindInvalidCredentials, "invalid email or password", nil)
		assert.Equal(t, "invalid credentials: invalid email or password", err.Error())
	})
}

func TestStorage(t *testing.T) {
	assert.NoError(t, Storage("op", nil))

	cause := errors.New("disk full")
	err := Storage("write session file", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write session file")
}
