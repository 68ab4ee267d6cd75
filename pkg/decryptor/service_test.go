package decryptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testKey = []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("00112233445566778899AABBCCDDEEFF")
	require.NoError(t, err)
	require.Equal(t, testKey, key)
}

func TestParseKeyRejectsBadInput(t *testing.T) {
	for _, bad := range []string{"", "0011", "00112233445566778899AABBCCDDEEFF00", "ZZ112233445566778899AABBCCDDEEFF"} {
		_, err := ParseKey(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestRoundTrip(t *testing.T) {
	plaintext := []byte("/TST5 meter\r\n\r\n1-0:1.8.1(000123.456*kWh)\r\n!A1B2\r\n")
	systemTitle := []byte("KAM50000")

	frame, err := Encrypt(plaintext, testKey, DefaultProfile, systemTitle, 0x00000539)
	require.NoError(t, err)
	require.Equal(t, byte(0xDB), frame[0])
	require.Equal(t, byte(0x08), frame[1])
	require.Len(t, frame, 18+len(plaintext)+12)

	d, err := New(testKey, DefaultProfile)
	require.NoError(t, err)
	require.True(t, d.Enabled())

	got, err := d.Decrypt(frame)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	frame, err := Encrypt([]byte("payload"), testKey, DefaultProfile, []byte("KAM50000"), 1)
	require.NoError(t, err)
	frame[20] ^= 0x01

	d, err := New(testKey, DefaultProfile)
	require.NoError(t, err)
	_, err = d.Decrypt(frame)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	frame, err := Encrypt([]byte("payload"), testKey, DefaultProfile, []byte("KAM50000"), 1)
	require.NoError(t, err)

	otherKey := append([]byte(nil), testKey...)
	otherKey[0] ^= 0xFF
	d, err := New(otherKey, DefaultProfile)
	require.NoError(t, err)
	_, err = d.Decrypt(frame)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptRejectsShortFrame(t *testing.T) {
	d, err := New(testKey, DefaultProfile)
	require.NoError(t, err)
	_, err = d.Decrypt([]byte{0xDB, 0x08, 1, 2, 3})
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestPassThroughWithoutKey(t *testing.T) {
	d, err := New(nil, DefaultProfile)
	require.NoError(t, err)
	require.False(t, d.Enabled())

	input := []byte("/TST5\r\n!0000\r\n")
	got, err := d.Decrypt(input)
	require.NoError(t, err)
	require.Equal(t, input, got)
}

func TestNewRejectsBadNonceLength(t *testing.T) {
	profile := Profile{Marker: 0xDB, SystemTitleLen: 6, TagLen: 12}
	_, err := New(testKey, profile)
	require.Error(t, err)
}
