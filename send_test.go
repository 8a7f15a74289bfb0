package corewire

import (
	"testing"

	"github.com/fernmesh/corewire/internal/message"
	"github.com/stretchr/testify/require"
)

// TestPendingQueueCapReturnsErrPendingQueueFull: the pending queue is
// capped, not unbounded, and overflow fails fast.
func TestPendingQueueCapReturnsErrPendingQueueFull(t *testing.T) {
	sess, err := New(true, Handlers{Send: func([]byte) {}}, WithMaxPendingQueue(2))
	require.NoError(t, err)

	sent, err := sess.SendStatus(0, message.Status{Uploading: true})
	require.NoError(t, err)
	require.False(t, sent)

	sent, err = sess.SendStatus(0, message.Status{Uploading: true})
	require.NoError(t, err)
	require.False(t, sent)

	_, err = sess.SendStatus(0, message.Status{Uploading: true})
	require.ErrorIs(t, err, ErrPendingQueueFull)
}

// TestReentrantRecvIsDestroyed: a handler that calls Recv while a Recv on
// the same Session is still in flight (here, from within the Send callback
// Recv itself triggered) is treated as fatal misuse, not silently
// tolerated.
func TestReentrantRecvIsDestroyed(t *testing.T) {
	var msg1 []byte
	_, err := New(true, Handlers{Send: func(b []byte) { msg1 = b }})
	require.NoError(t, err)
	require.NotEmpty(t, msg1)

	var destroyed bool
	var destroyErr error
	var resp *Session
	resp, err = New(false, Handlers{
		Send: func([]byte) {
			_ = resp.Recv([]byte{0})
		},
		Destroy: func(err error) {
			destroyed = true
			destroyErr = err
		},
	})
	require.NoError(t, err)

	_ = resp.Recv(msg1)

	require.True(t, destroyed)
	require.ErrorIs(t, destroyErr, ErrReentrant)
}

func TestSendHandlerRequired(t *testing.T) {
	_, err := New(true, Handlers{})
	require.ErrorIs(t, err, ErrSendHandlerRequired)
}

func TestCapabilityAbsentPreHandshake(t *testing.T) {
	sess, err := New(true, Handlers{Send: func([]byte) {}})
	require.NoError(t, err)

	_, ok := sess.Capability(make([]byte, 32))
	require.False(t, ok)
	_, ok = sess.RemoteCapability(make([]byte, 32))
	require.False(t, ok)
}
