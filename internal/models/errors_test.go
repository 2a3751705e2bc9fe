package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindPrecondition, KindOf(ErrNotMember))
	require.Equal(t, KindConflict, KindOf(fmt.Errorf("create: %w", ErrGroupExists)))
	require.Equal(t, KindNotFound, KindOf(ErrGroupNotFound))
	require.Equal(t, KindStorage, KindOf(errors.New("boom")))
}

func TestClientMessageHidesStorageFailures(t *testing.T) {
	require.Equal(t, "group does not exist", ClientMessage(ErrGroupNotFound))
	require.Equal(t, "internal server error", ClientMessage(StorageError("read group", errors.New("i/o timeout"))))
	require.Equal(t, "internal server error", ClientMessage(errors.New("raw")))
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := StorageError("list groups", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "list groups: dial tcp: refused", err.Error())
}
