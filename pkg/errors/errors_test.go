package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := Wrap(stdErrors.New("boom"), "failed")
	require.Equal(t, "failed: boom", err.Error())
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", http.StatusBadRequest)
	with := base.WithInternal(stdErrors.New("oops"))

	require.NotSame(t, base, with)
	require.Nil(t, base.Internal)
	require.NotNil(t, with.Internal)
}

func TestIsMatchesCopiesByCode(t *testing.T) {
	wrapped := ErrCredentialUsed.WithInternal(stdErrors.New("row exists"))

	require.ErrorIs(t, wrapped, ErrCredentialUsed)
	require.NotErrorIs(t, wrapped, ErrCredentialInvalid)
	require.False(t, stdErrors.Is(New("", "no code", http.StatusTeapot), New("", "other", http.StatusTeapot)))
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrNotFound.WithMessage("registrant not found")

	require.Equal(t, "registrant not found", with.Message)
	require.Equal(t, "Resource not found", ErrNotFound.Message)
	require.Equal(t, ErrNotFound.Code, with.Code)
}

func TestFromError(t *testing.T) {
	require.Same(t, ErrCredentialUsed, FromError(ErrCredentialUsed))

	raw := stdErrors.New("raw")
	out := FromError(raw)
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.ErrorIs(t, out, raw)

	require.Nil(t, FromError(nil))
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, "invalid payload", err.Message)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
}
