package integrity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_KnownDigest(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Bytes([]byte("abc")))
}

func TestReader_MatchesBytes(t *testing.T) {
	payload := strings.Repeat("evidence", 1024)

	sum, size, err := Reader(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)
	assert.Equal(t, Bytes([]byte(payload)), sum)
}

func TestIsDigest(t *testing.T) {
	assert.True(t, IsDigest(Bytes(nil)))
	assert.False(t, IsDigest("abc"))
	assert.False(t, IsDigest(strings.ToUpper(Bytes(nil))))
	assert.False(t, IsDigest(strings.Repeat("g", DigestLength)))
}
