package framer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPlaintextFrameComplete(t *testing.T) {
	f := New(Config{Mode: ModePlaintext})
	telegram := "/TST5 meter\r\n\r\n1-0:1.8.1(000123.456*kWh)\r\n!A1B2\r\n"

	frame := feedAll(t, f, []byte(telegram))
	require.NotNil(t, frame)
	require.False(t, frame.Encrypted)
	// The trailing CR or LF that closed the frame is included.
	require.Equal(t, "/TST5 meter\r\n\r\n1-0:1.8.1(000123.456*kWh)\r\n!A1B2\r", string(frame.Data))
	require.False(t, f.InFrame())
}

func TestPlaintextIgnoresLeadingNoise(t *testing.T) {
	f := New(Config{Mode: ModePlaintext})
	input := "x\x00\xffgarbage/TST5\r\n!0000\r\n"

	frame := feedAll(t, f, []byte(input))
	require.NotNil(t, frame)
	require.Equal(t, byte('/'), frame.Data[0])
}

func TestPlaintextStripsWrapBeforeParen(t *testing.T) {
	f := New(Config{Mode: ModePlaintext})
	// A wrapped line: CRLF immediately before '(' belongs to the wrapped
	// value, not the structure.
	input := "/TST5\r\n\r\n0-0:96.13.0\r\n(wrapped text)\r\n!0000\r\n"

	frame := feedAll(t, f, []byte(input))
	require.NotNil(t, frame)
	require.Contains(t, string(frame.Data), "0-0:96.13.0(wrapped text)")
}

func TestPlaintextTooLong(t *testing.T) {
	f := New(Config{Mode: ModePlaintext, MaxTelegramLength: 16})
	var gotErr error
	now := t0
	f.Feed('/', now)
	for i := 0; i < 32; i++ {
		_, err := f.Feed('a', now)
		if err != nil {
			gotErr = err
			break
		}
	}
	require.ErrorIs(t, gotErr, ErrFrameTooLong)
	require.False(t, f.InFrame())
}

func TestPlaintextResyncAfterOverflow(t *testing.T) {
	f := New(Config{Mode: ModePlaintext, MaxTelegramLength: 16})
	f.Feed('/', t0)
	for i := 0; i < 32; i++ {
		if _, err := f.Feed('a', t0); err != nil {
			break
		}
	}

	frame := feedAll(t, f, []byte("/T\r\n!0000\r\n"))
	require.NotNil(t, frame)
}

func TestStallTimeout(t *testing.T) {
	f := New(Config{Mode: ModePlaintext, ReceiveTimeout: 100 * time.Millisecond})
	f.Feed('/', t0)
	require.True(t, f.InFrame())

	require.NoError(t, f.CheckTimeout(t0.Add(50*time.Millisecond)))
	err := f.CheckTimeout(t0.Add(200 * time.Millisecond))
	require.ErrorIs(t, err, ErrFrameTimeout)
	require.False(t, f.InFrame())
}

func TestTimeoutDisabledWhenZero(t *testing.T) {
	f := New(Config{Mode: ModePlaintext})
	f.Feed('/', t0)
	require.NoError(t, f.CheckTimeout(t0.Add(time.Hour)))
}

func TestEncryptedFrameComplete(t *testing.T) {
	f := New(Config{
		Mode:           ModeEncrypted,
		Marker:         0xDB,
		SystemTitleLen: 8,
		TagLen:         12,
	})

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	input := buildEncryptedWire(payload, 12)

	var frame *RawFrame
	for i, b := range input {
		got, err := f.Feed(b, t0)
		require.NoError(t, err)
		if i < len(input)-1 {
			require.Nil(t, got)
		}
		frame = got
	}
	require.NotNil(t, frame)
	require.True(t, frame.Encrypted)
	require.Equal(t, input, frame.Data)
}

func TestEncryptedBadSystemTitleLength(t *testing.T) {
	f := New(Config{Mode: ModeEncrypted, Marker: 0xDB, SystemTitleLen: 8, TagLen: 12})

	input := []byte{0xDB, 0x07, 1, 2, 3, 4, 5, 6, 7, 8, 0x82, 0x00, 0x04}
	var gotErr error
	for _, b := range input {
		if _, err := f.Feed(b, t0); err != nil {
			gotErr = err
			break
		}
	}
	require.ErrorIs(t, gotErr, ErrInvalidHeader)
	require.Contains(t, gotErr.Error(), "DB07")
	require.False(t, f.InFrame())

	// A well-formed frame after the bad header is framed normally.
	frame := feedAll(t, f, buildEncryptedWire([]byte{1, 2, 3, 4}, 12))
	require.NotNil(t, frame)
}

func TestEncryptedIgnoresBytesBeforeMarker(t *testing.T) {
	f := New(Config{Mode: ModeEncrypted, Marker: 0xDB, SystemTitleLen: 8, TagLen: 12})

	input := append([]byte{0x00, 0x13, 0x37}, buildEncryptedWire([]byte{1, 2, 3, 4}, 12)...)
	frame := feedAll(t, f, input)
	require.NotNil(t, frame)
	require.Equal(t, byte(0xDB), frame.Data[0])
}

func feedAll(t *testing.T, f *Framer, input []byte) *RawFrame {
	t.Helper()
	for _, b := range input {
		frame, err := f.Feed(b, t0)
		require.NoError(t, err)
		if frame != nil {
			return frame
		}
	}
	return nil
}

// buildEncryptedWire assembles a syntactically valid encrypted frame with a
// dummy ciphertext and tag.
func buildEncryptedWire(payload []byte, tagLen int) []byte {
	frame := []byte{0xDB, 0x08, 'S', 'Y', 'S', 'T', 'I', 'T', 'L', 'E'}
	frame = append(frame, 0x82, byte(len(payload)>>8), byte(len(payload)), 0x30)
	frame = append(frame, 0x00, 0x00, 0x00, 0x01)
	frame = append(frame, payload...)
	for i := 0; i < tagLen; i++ {
		frame = append(frame, 0xAA)
	}
	return frame
}
