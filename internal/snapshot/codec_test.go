package snapshot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	large := make([]byte, 1<<20)
	rand.New(rand.NewSource(42)).Read(large)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"one byte", []byte{0x00}},
		{"high bytes", []byte{0xff, 0xfe, 0x80}},
		{"large", large},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not*base64!")
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestEncodeOptional(t *testing.T) {
	assert.Nil(t, EncodeOptional(nil))
	s := EncodeOptional([]byte("x"))
	require.NotNil(t, s)
	assert.Equal(t, "eA==", *s)
}
