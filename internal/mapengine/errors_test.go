package mapengine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileErrorFormatsMessage(t *testing.T) {
	err := NewTileError("unsupported extension %q", "jpg")
	require.EqualError(t, err, `unsupported extension "jpg"`)
}

func TestMsgErrorNotFoundIsDistinguishable(t *testing.T) {
	err := NewNotFound("The map %q does not exist", "chile")
	require.True(t, err.NotFound)

	var msgErr *MsgError
	require.True(t, errors.As(err, &msgErr))
	require.False(t, func() bool {
		other := NewMsg("bad request")
		return other.NotFound
	}())
}
