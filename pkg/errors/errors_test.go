package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := New("user_exists", "user already exists")
	wrapped := fmt.Errorf("create: %w", Wrap("user_exists", "duplicate username", errors.New("23505")))

	require.True(t, errors.Is(wrapped, sentinel))
	require.False(t, errors.Is(wrapped, New("not_authorized", "not authorized")))
	require.True(t, IsCode(wrapped, "user_exists"))
	require.Equal(t, "user_exists", Code(wrapped))
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := Wrap("persistence_error", "failed to insert user", errors.New("connection reset"))
	require.Equal(t, "failed to insert user: connection reset", err.Error())
	require.Equal(t, "", Code(errors.New("plain")))
}
