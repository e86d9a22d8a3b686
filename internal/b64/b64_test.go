// Copyright (c) 2026 Josecore Authors

package b64

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(x)) == x", prop.ForAll(
		func(data []byte) bool {
			decoded, err := Decode(Encode(data))
			if err != nil {
				return false
			}
			if len(data) == 0 {
				return len(decoded) == 0
			}
			return string(decoded) == string(data)
		},
		gen.SliceOf(gen.UInt8Range(0, 255)),
	))

	properties.TestingRun(t)
}

func TestEncodeNeverPads(t *testing.T) {
	for i := 0; i < 8; i++ {
		data := make([]byte, i)
		encoded := Encode(data)
		assert.NotContains(t, encoded, "=")
	}
}

func TestDecodeAcceptsPaddedAndStandardAlphabet(t *testing.T) {
	// "f" -> "Zg==" (base64 std, padded) == "Zg" (base64url, unpadded)
	padded, err := Decode("Zg==")
	require.NoError(t, err)
	assert.Equal(t, []byte("f"), padded)

	unpadded, err := Decode("Zg")
	require.NoError(t, err)
	assert.Equal(t, []byte("f"), unpadded)
}

func TestDecodeRejectsInvalidLength(t *testing.T) {
	_, err := Decode("A")
	assert.Error(t, err)
}

func TestDecodeRejectsInternalWhitespace(t *testing.T) {
	for _, s := range []string{"Zg\nZg", "Zg Zg", "Zg\rZg", "Zg\tZg"} {
		_, err := Decode(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDecodeEmptyStringReturnsEmptySlice(t *testing.T) {
	out, err := Decode("")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestEncodeUnsignedDecodeToUnsignedBigInt(t *testing.T) {
	n := big.NewInt(65537)
	s := EncodeUnsigned(n)
	got, err := DecodeToUnsignedBigInt(s)
	require.NoError(t, err)
	assert.Equal(t, 0, n.Cmp(got))
}

func TestEncodeUnsignedZero(t *testing.T) {
	s := EncodeUnsigned(big.NewInt(0))
	assert.Equal(t, "", s)
}

func TestFixedWidthPadsLeft(t *testing.T) {
	raw := []byte{0x01, 0x02}
	s := Encode(raw)
	padded, err := FixedWidth(s, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x02}, padded)
}

func TestFixedWidthRejectsOverlong(t *testing.T) {
	s := Encode([]byte{0x01, 0x02, 0x03})
	_, err := FixedWidth(s, 2)
	assert.Error(t, err)
}
