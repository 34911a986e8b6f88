package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError_IsValidation(t *testing.T) {
	t.Parallel()

	err := Invalid("name", "required")
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "validation: name: required", err.Error())

	wrapped := fmt.Errorf("add item: %w", err)
	require.ErrorIs(t, wrapped, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, wrapped, &ve)
	require.Equal(t, "name", ve.Field)

	require.Equal(t, "validation: bad batch", (&ValidationError{Reason: "bad batch"}).Error())
}

func TestOpError_MatchesKindAndCause(t *testing.T) {
	t.Parallel()

	err := Storage("put item", io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.NotErrorIs(t, err, ErrRemoteUnavailable)
	require.Equal(t, "put item", Op(err))

	rerr := Remote("list items", errors.New("dial tcp: refused"))
	require.ErrorIs(t, rerr, ErrRemoteUnavailable)
	require.Contains(t, rerr.Error(), "list items")
	require.Contains(t, rerr.Error(), "refused")

	require.NoError(t, Storage("noop", nil))
	require.NoError(t, Remote("noop", nil))
	require.Equal(t, "", Op(io.EOF))
}
