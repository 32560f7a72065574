package vectorblob

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := []float32{0, 1, -2.5, math.MaxFloat32, float32(math.Inf(-1))}
	blob := Encode(in)
	assert.Len(t, blob, 20)

	out, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_RejectsTruncatedBlob(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)

	out, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
