package mp4io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func zeros(n int) []byte {
	return make([]byte, n)
}

func parseBytes(t *testing.T, b []byte) *Box {
	t.Helper()
	box, err := Parse(NewBytesReader(b), Unbounded)
	require.NoError(t, err)
	return box
}

// requireSizes checks End-Offset bookkeeping over the whole tree. For
// containers without a field prefix the children and padding must account
// for the whole body.
func requireSizes(t *testing.T, box *Box) {
	t.Helper()
	require.GreaterOrEqual(t, box.Size(), int64(HeaderSize), box.String())
	if len(box.Children) == 0 {
		return
	}
	sum := int64(len(box.Padding))
	for i, child := range box.Children {
		if i > 0 {
			require.Equal(t, box.Children[i-1].End, child.Offset, "children of %s are not contiguous", box)
		}
		sum += child.Size()
		requireSizes(t, child)
	}
	require.Equal(t, box.End, box.Children[len(box.Children)-1].End+int64(len(box.Padding)), box.String())
	if len(box.Fields) == 0 {
		require.Equal(t, box.Size(), sum+HeaderSize, box.String())
	}
}
