//go:build spscdebug

package spsc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugSenderReentry(t *testing.T) {
	var s *Sender[int]
	armed := true
	s, r := NewChannel(1, WithDispose(func(int) {
		// a disposer running inside TrySend is still on the producer role
		if armed {
			s.TrySend(0)
		}
	}))
	defer r.Close()
	defer s.Close()

	require.True(t, s.TrySend(1))
	require.PanicsWithValue(t, "spsc: overlapping use of Sender", func() { s.TrySend(2) })

	// the guard is released again after the panic
	v, ok := r.TryRecv()
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.True(t, s.TrySend(3))
	armed = false
}

func TestDebugWriterReentry(t *testing.T) {
	var w *Writer[int]
	armed := true
	w, r := NewTripleBuffer(0, WithDispose(func(int) {
		if armed {
			w.Write(0)
		}
	}))
	defer r.Close()
	defer w.Close()

	require.PanicsWithValue(t, "spsc: overlapping use of Writer", func() { w.Write(1) })
	armed = false

	w.Write(2)
	require.Equal(t, 2, *r.Read())
}

func TestDebugReaderOverlap(t *testing.T) {
	w, r := NewTripleBuffer(0)
	defer w.Close()
	defer r.Close()

	// simulate a second goroutine being inside Read
	r.role.enter("Reader")
	require.PanicsWithValue(t, "spsc: overlapping use of Reader", func() { r.Read() })
	r.role.exit()

	w.Write(5)
	require.Equal(t, 5, *r.Read())
}

func TestDebugWriterGuardOverlap(t *testing.T) {
	w, r := NewTripleBuffer(0)
	defer r.Close()
	defer w.Close()

	// simulate a second goroutine being inside a Writer method
	w.role.enter("Writer")
	require.PanicsWithValue(t, "spsc: overlapping use of Writer", func() { w.GetMut() })
	require.False(t, w.pending, "GetMut must not open a guard when it panics")
	w.role.exit()

	g := w.GetMut()
	w.role.enter("Writer")
	require.PanicsWithValue(t, "spsc: overlapping use of Writer", func() { g.Value() })
	w.role.exit()

	*g.Value() = 4
	g.Commit()
	require.Equal(t, 4, *r.Read())
}
